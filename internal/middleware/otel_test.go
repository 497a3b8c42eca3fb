package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plforecast/internal/infrastructure"
	"plforecast/internal/shared/testutil"
)

func TestOTelMiddlewareRecordsRoutes(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	otelMW, err := NewOTelMiddleware(providers, nil)
	require.NoError(t, err)

	var fromCtx *infrastructure.BusinessMetrics
	r := chi.NewRouter()
	r.Use(otelMW.Handler)
	r.Get("/api/forecast/{id}", func(w http.ResponseWriter, r *http.Request) {
		fromCtx = BusinessMetricsFromContext(r.Context())
		w.WriteHeader(http.StatusAccepted)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/forecast/42", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.NotNil(t, fromCtx)

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()
	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "http_requests_total")
	assert.Contains(t, string(body), `route="/api/forecast/{id}"`)
}

func TestBusinessMetricsFromContextMissing(t *testing.T) {
	assert.Nil(t, BusinessMetricsFromContext(context.Background()))
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"plforecast/internal/assistant"
	"plforecast/internal/config"
	"plforecast/internal/shared/testutil"
)

// MockProvider is a testify mock for assistant.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Generate(ctx context.Context, systemPrompt, question string) (string, error) {
	args := m.Called(ctx, systemPrompt, question)
	return args.String(0), args.Error(1)
}

func testForecastConfig() config.ForecastConfig {
	return config.ForecastConfig{
		SheetName:      config.DefaultSheetName,
		StartYear:      2024,
		EndYear:        2028,
		MaxUploadBytes: config.DefaultMaxUploadBytes,
	}
}

func newTestAnalysisService(t *testing.T) *AnalysisService {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewAnalysisService(testForecastConfig(), nil, logger)
}

func newTestChatService(t *testing.T, provider assistant.Provider, sessionFile string) (*ChatService, *AnalysisService) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	analysis := NewAnalysisService(testForecastConfig(), nil, logger)
	chat := NewChatService(
		assistant.New(provider, 0, logger),
		assistant.NewTranscriptStore(sessionFile),
		analysis,
		nil,
		logger,
	)
	return chat, analysis
}

package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatCompletionServer speaks just enough of the chat-completions wire format.
func chatCompletionServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

const completionOK = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-3.5-turbo",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "- Rent is flat"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
}`

func TestOpenAIProvider_Generate(t *testing.T) {
	var seen map[string]any
	srv := chatCompletionServer(t, http.StatusOK, completionOK, &seen)
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", "", srv.URL+"/v1", 0.2)
	got, err := p.Generate(context.Background(), "system text", "What about rent?")
	require.NoError(t, err)
	assert.Equal(t, "- Rent is flat", got)

	assert.Equal(t, "gpt-3.5-turbo", seen["model"])
	messages, ok := seen["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "system text", messages[0].(map[string]any)["content"])
	assert.Equal(t, "What about rent?", messages[1].(map[string]any)["content"])
}

func TestOpenAIProvider_APIError(t *testing.T) {
	srv := chatCompletionServer(t, http.StatusTooManyRequests,
		`{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`, nil)
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", "gpt-4o-mini", srv.URL+"/v1", 0)
	_, err := p.Generate(context.Background(), "s", "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Rate limit reached")
	assert.NotErrorIs(t, err, ErrProviderUnavailable)

	reply := New(p, 0, nil).Ask(context.Background(), nil, "q")
	assert.Equal(t, OutcomeError, reply.Outcome)
	assert.True(t, strings.HasPrefix(reply.Message, "AI Error: "))
}

func TestOpenAIProvider_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewOpenAIProvider("sk-test", "", url+"/v1", 0)
	_, err := p.Generate(context.Background(), "s", "q")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProviderUnavailable)
	assert.Contains(t, err.Error(), "openai chat completion failed")

	reply := New(p, 0, nil).Ask(context.Background(), nil, "q")
	assert.Equal(t, OutcomeError, reply.Outcome)
	assert.True(t, strings.HasPrefix(reply.Message, "AI Error: "))
	assert.NotEqual(t, OllamaDownReply, reply.Message)
	assert.NotContains(t, reply.HTML, "Ollama")
}

func TestOllamaProvider(t *testing.T) {
	t.Run("answers through the local endpoint", func(t *testing.T) {
		var seen map[string]any
		srv := chatCompletionServer(t, http.StatusOK, completionOK, &seen)
		defer srv.Close()

		p := NewOllamaProvider("", srv.URL+"/v1", 0)
		got, err := p.Generate(context.Background(), "s", "q")
		require.NoError(t, err)
		assert.Equal(t, "- Rent is flat", got)
		assert.Equal(t, "llama2", seen["model"])
	})

	t.Run("server not running", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		p := NewOllamaProvider("", url+"/v1", 0)
		_, err := p.Generate(context.Background(), "s", "q")
		assert.ErrorIs(t, err, ErrProviderUnavailable)

		reply := New(p, 0, nil).Ask(context.Background(), nil, "q")
		assert.Equal(t, OllamaDownReply, reply.Message)
		assert.Contains(t, reply.HTML, "<strong>Ollama is not running.</strong>")
	})
}

func TestGeminiProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "gemini-2.0-flash:generateContent")
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req, "systemInstruction")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Margins improved."}]},"finishReason":"STOP"}]}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider("g-key", "", srv.URL, 0.1)
	got, err := p.Generate(context.Background(), "system text", "How are margins?")
	require.NoError(t, err)
	assert.Equal(t, "Margins improved.", got)
}

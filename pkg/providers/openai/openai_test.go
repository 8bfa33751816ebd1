package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-subtitle-translator/pkg/providers"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": " Xin chào \n"}}],
  "usage": {"prompt_tokens": 21, "completion_tokens": 3, "total_tokens": 24}
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultConfig()
	config.APIKey = "test-key"
	config.APIEndpoint = server.URL + "/v1/"
	config.Timeout = 5 * time.Second
	return New(config)
}

func TestTranslate(t *testing.T) {
	var payload struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	})

	resp, err := provider.Translate(context.Background(), &providers.ProviderRequest{
		Text:           "Hello",
		SourceLanguage: "auto",
		TargetLanguage: "vi",
	})
	require.NoError(t, err)

	assert.Equal(t, "Xin chào", resp.Text)
	assert.Equal(t, 21, resp.TokensIn)
	assert.Equal(t, 3, resp.TokensOut)
	assert.Equal(t, "stop", resp.Metadata["finish_reason"])

	assert.Equal(t, DefaultModel, payload.Model)
	require.Len(t, payload.Messages, 2)
	assert.Equal(t, "system", payload.Messages[0].Role)
	assert.Equal(t, "user", payload.Messages[1].Role)
	assert.Equal(t, "Translate into vi:\n\nHello", payload.Messages[1].Content)
}

func TestTranslateSingleAttempt(t *testing.T) {
	calls := 0
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	_, err := provider.Translate(context.Background(), &providers.ProviderRequest{Text: "Hello", TargetLanguage: "vi"})
	require.Error(t, err)
	var perr *providers.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, providers.ErrCodeTransport, perr.Code)
	assert.Equal(t, 1, calls)
}

func TestTranslateNoChoices(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[]}`))
	})

	_, err := provider.Translate(context.Background(), &providers.ProviderRequest{Text: "Hello", TargetLanguage: "vi"})
	var perr *providers.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, providers.ErrCodeParse, perr.Code)
}

func TestGetModel(t *testing.T) {
	assert.Equal(t, "gpt-4o-mini", string(getModel("")))
	assert.Equal(t, "my-local-model", string(getModel("my-local-model")))
}

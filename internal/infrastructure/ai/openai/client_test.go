package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/alchemorsel/recipebook/internal/infrastructure/ai"
	"github.com/alchemorsel/recipebook/internal/infrastructure/config"
	"github.com/alchemorsel/recipebook/internal/ports/outbound"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const completionsURL = "https://api.test/v1/chat/completions"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	return NewClient(config.AIConfig{
		APIKey:  "sk-test",
		BaseURL: "https://api.test/v1/",
	}, httpClient, zap.NewNop())
}

func completion(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
	}
}

func TestClient_GenerateInstructions_Success(t *testing.T) {
	client := newTestClient(t)

	var captured ChatCompletionRequest
	httpmock.RegisterResponder(http.MethodPost, completionsURL,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			if err := json.NewDecoder(req.Body).Decode(&captured); err != nil {
				return nil, err
			}
			return httpmock.NewJsonResponse(http.StatusOK, completion("  1. Boil water.\n2. Add pasta.  \n"))
		})

	text, err := client.GenerateInstructions(context.Background(), outbound.GenerationRequest{
		System: "be a chef",
		Prompt: "Recipe: Pasta",
	})

	require.NoError(t, err)
	assert.Equal(t, "1. Boil water.\n2. Add pasta.", text)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.Equal(t, 500, captured.MaxTokens)
	assert.InDelta(t, 0.7, captured.Temperature, 0.0001)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, Message{Role: "system", Content: "be a chef"}, captured.Messages[0])
	assert.Equal(t, Message{Role: "user", Content: "Recipe: Pasta"}, captured.Messages[1])
}

func TestClient_GenerateInstructions_EmptyContent(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, completionsURL,
		httpmock.NewJsonResponderOrPanic(http.StatusOK, completion("   ")))

	text, err := client.GenerateInstructions(context.Background(), outbound.GenerationRequest{Prompt: "p"})

	require.NoError(t, err)
	assert.Equal(t, EmptyResponseText, text)
}

func TestClient_GenerateInstructions_NoChoices(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, completionsURL,
		httpmock.NewStringResponder(http.StatusOK, `{"choices":[]}`))

	text, err := client.GenerateInstructions(context.Background(), outbound.GenerationRequest{Prompt: "p"})

	require.NoError(t, err)
	assert.Equal(t, EmptyResponseText, text)
}

func TestClient_GenerateInstructions_APIErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected ai.APIError
		message  string
	}{
		{
			name:     "rate_limited",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"message":"Rate limit reached","type":"requests","code":"rate_limit_exceeded"}}`,
			expected: ai.APIError{StatusCode: 429, Type: "requests", Code: "rate_limit_exceeded", Message: "Rate limit reached"},
			message:  "API rate limit exceeded. Please try again in a few minutes.",
		},
		{
			name:     "quota",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`,
			expected: ai.APIError{StatusCode: 429, Type: "insufficient_quota", Code: "insufficient_quota", Message: "You exceeded your current quota"},
			message:  "API quota exceeded. Please check your OpenAI billing.",
		},
		{
			name:     "invalid_key",
			status:   http.StatusUnauthorized,
			body:     `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`,
			expected: ai.APIError{StatusCode: 401, Type: "invalid_request_error", Code: "invalid_api_key", Message: "Incorrect API key provided"},
			message:  "Invalid API key or authentication failed.",
		},
		{
			name:     "plain_body",
			status:   http.StatusBadGateway,
			body:     "upstream down",
			expected: ai.APIError{StatusCode: 502, Message: "upstream down"},
			message:  "OpenAI API error: upstream down",
		},
		{
			name:     "empty_body",
			status:   http.StatusServiceUnavailable,
			body:     "",
			expected: ai.APIError{StatusCode: 503, Message: "Service Unavailable"},
			message:  "OpenAI API error: Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t)
			httpmock.RegisterResponder(http.MethodPost, completionsURL,
				httpmock.NewStringResponder(tt.status, tt.body))

			_, err := client.GenerateInstructions(context.Background(), outbound.GenerationRequest{Prompt: "p"})

			require.Error(t, err)
			var apiErr *ai.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.expected, *apiErr)
			assert.Equal(t, tt.message, ai.ErrorMessage(err))
		})
	}
}

func TestClient_GenerateInstructions_TransportError(t *testing.T) {
	client := newTestClient(t)

	httpmock.RegisterResponder(http.MethodPost, completionsURL,
		httpmock.NewErrorResponder(errors.New("connection reset")))

	_, err := client.GenerateInstructions(context.Background(), outbound.GenerationRequest{Prompt: "p"})

	require.Error(t, err)
	var transportErr *ai.TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Contains(t, ai.ErrorMessage(err), "HTTP error: ")
	assert.Contains(t, ai.ErrorMessage(err), "connection reset")
}

func TestClient_GenerateInstructions_CanceledWhileRateLimited(t *testing.T) {
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	httpmock.RegisterResponder(http.MethodPost, "https://api.openai.com/v1/chat/completions",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, completion("1. Stir.")))

	client := NewClient(config.AIConfig{APIKey: "k", RequestsPerMinute: 1}, httpClient, zap.NewNop())

	_, err := client.GenerateInstructions(context.Background(), outbound.GenerationRequest{Prompt: "p"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.GenerateInstructions(ctx, outbound.GenerationRequest{Prompt: "p"})

	require.Error(t, err)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

// Package ai provides the text-generation collaborators used for cooking instructions
package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is an error response returned by the model provider
type APIError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// TransportError is a failure to reach the provider or read its response
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ErrorMessage describes a generation failure in terms a reader of the recipe
// page can act on
func ErrorMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests && !isQuota(apiErr),
			apiErr.Code == "rate_limit_exceeded":
			return "API rate limit exceeded. Please try again in a few minutes."
		case apiErr.StatusCode == http.StatusUnauthorized, apiErr.Code == "invalid_api_key":
			return "Invalid API key or authentication failed."
		case apiErr.StatusCode == http.StatusNotFound, apiErr.Code == "model_not_found":
			return "Model not available. Please check OpenAI model configuration."
		case isQuota(apiErr):
			return "API quota exceeded. Please check your OpenAI billing."
		case apiErr.StatusCode == http.StatusBadRequest:
			return "Bad request to OpenAI API. Please check the request parameters."
		default:
			return fmt.Sprintf("OpenAI API error: %s", apiErr.Message)
		}
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return fmt.Sprintf("HTTP error: %s", transportErr.Err.Error())
	}

	return fmt.Sprintf("Unexpected error: %s", err.Error())
}

func isQuota(e *APIError) bool {
	return e.Code == "insufficient_quota" || e.Code == "quota_exceeded" ||
		e.Type == "insufficient_quota"
}

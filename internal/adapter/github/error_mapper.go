package github

import (
	"encoding/json"
	"fmt"

	"github.com/critique-dev/critique/internal/adapter/httpkit"
)

type apiError struct {
	Message string `json:"message"`
}

// MapHTTPError converts a GitHub error response into a typed error so the
// retry layer knows what is worth retrying.
func MapHTTPError(statusCode int, body []byte) *httpkit.Error {
	message := fmt.Sprintf("HTTP %d", statusCode)
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		message = fmt.Sprintf("HTTP %d: %s", statusCode, parsed.Message)
	}

	switch {
	case statusCode == 401:
		return httpkit.NewAuthenticationError(serviceName, message)
	case statusCode == 403 || statusCode == 429:
		// 403 is also GitHub's rate-limit status for the REST API.
		return httpkit.NewRateLimitError(serviceName, message)
	case statusCode == 404:
		return httpkit.NewNotFoundError(serviceName, message)
	case statusCode == 422:
		return httpkit.NewInvalidRequestError(serviceName, message)
	case statusCode >= 500:
		return httpkit.NewServiceUnavailableError(serviceName, message)
	default:
		return &httpkit.Error{
			Type:       httpkit.ErrTypeUnknown,
			Message:    message,
			StatusCode: statusCode,
			Service:    serviceName,
		}
	}
}

package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	apperrors "github.com/lilizblack/bookeareads-server/internal/errors"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to render domain errors.
// Call this before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var appErr *apperrors.Error
			if errors.As(err, &appErr) {
				return &APIError{
					status:  appErr.HTTPStatus(),
					Code:    string(appErr.Code),
					Message: appErr.Message,
					Details: appErr.Details,
				}
			}
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
	}
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(apperrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(apperrors.CodeUnauthorized)
	case http.StatusForbidden:
		return string(apperrors.CodeForbidden)
	case http.StatusNotFound:
		return string(apperrors.CodeNotFound)
	case http.StatusConflict:
		return string(apperrors.CodeConflict)
	case http.StatusTooManyRequests:
		return string(apperrors.CodeRateLimited)
	default:
		return string(apperrors.CodeInternal)
	}
}

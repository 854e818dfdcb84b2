// Package server provides the HTTP API for the compliance checker.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/anupalankarta/internal/fetch"
	"github.com/jonathan/anupalankarta/internal/ingestion"
	"github.com/jonathan/anupalankarta/internal/llm"
	"github.com/jonathan/anupalankarta/internal/rules"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation  *ErrValidation
		fields      validator.ValidationErrors
		unknown     *rules.UnknownFrameworkError
		unsupported *ingestion.UnsupportedFileError
		auth        *llm.AuthenticationError
		remote      *llm.RemoteServiceError
		network     *fetch.Error
		extraction  *fetch.ExtractionError
		tooLarge    *http.MaxBytesError
	)

	switch {
	case errors.As(err, &validation), errors.As(err, &fields), errors.As(err, &unknown),
		errors.Is(err, ingestion.ErrMultipleInputs):
		return http.StatusBadRequest
	case errors.As(err, &unsupported):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &auth):
		return http.StatusUnauthorized
	case errors.As(err, &remote), errors.As(err, &network):
		return http.StatusBadGateway
	case errors.As(err, &extraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorKind names the error category in JSON error bodies.
func errorKind(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnsupportedMediaType:
		return "unsupported_file"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusUnauthorized:
		return "authentication"
	case http.StatusBadGateway:
		return "upstream"
	case http.StatusUnprocessableEntity:
		return "extraction"
	case http.StatusGatewayTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

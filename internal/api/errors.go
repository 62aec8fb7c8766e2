package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/coursedeck/coursedeck-server/internal/errors"
)

// msgInternal is the only message a client ever sees for an unexpected failure.
const msgInternal = "Internal server error"

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

// FieldError describes one rejected request field.
type FieldError struct {
	Location string `json:"location,omitempty" doc:"Where the error occurred, e.g. body.title"`
	Message  string `json:"message" doc:"What was wrong with the value"`
}

// RegisterErrorHandler configures huma to render every error it creates
// (request validation, unknown handler errors) with domain error codes.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return fromDomainError(domainErr)
			}
		}

		switch {
		case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
			// Schema violations are reported like any other bad input.
			return validationError(message, errs)
		case status >= http.StatusInternalServerError:
			logger.Error("Unhandled error", "status", status, "message", message, "error", errors.Join(errs...))
			return &APIError{
				status:  status,
				Code:    string(domainerrors.CodeInternal),
				Message: msgInternal,
			}
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
	}
}

func fromDomainError(err *domainerrors.Error) *APIError {
	return &APIError{
		status:  err.HTTPStatus(),
		Code:    string(err.Code),
		Message: err.Message,
		Details: err.Details,
	}
}

// validationError flattens huma's field errors into a single message plus details.
func validationError(message string, errs []error) *APIError {
	var fields []FieldError
	for _, err := range errs {
		var detailer huma.ErrorDetailer
		if errors.As(err, &detailer) {
			d := detailer.ErrorDetail()
			fields = append(fields, FieldError{Location: d.Location, Message: d.Message})
			continue
		}
		if err != nil {
			fields = append(fields, FieldError{Message: err.Error()})
		}
	}

	if len(fields) > 0 {
		first := fields[0]
		if first.Location != "" {
			message = fmt.Sprintf("%s: %s", first.Location, first.Message)
		} else {
			message = first.Message
		}
	}

	apiErr := &APIError{
		status:  http.StatusBadRequest,
		Code:    string(domainerrors.CodeValidation),
		Message: message,
	}
	if len(fields) > 0 {
		apiErr.Details = fields
	}
	return apiErr
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusForbidden:
		return string(domainerrors.CodeForbidden)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	default:
		return string(domainerrors.CodeInternal)
	}
}

// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps domain errors onto status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"freelancedesk/internal/core"
	"freelancedesk/internal/invoice"
	"freelancedesk/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	noStore    bool
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header sets a custom header.
func (b *JSONResponseBuilder) Header(key, value string) *JSONResponseBuilder {
	b.headers[key] = value
	return b
}

// NoStore marks the response as uncacheable.
func (b *JSONResponseBuilder) NoStore() *JSONResponseBuilder {
	b.noStore = true
	return b
}

func (b *JSONResponseBuilder) writeHeaders(w http.ResponseWriter) {
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	if b.noStore {
		w.Header().Set("Cache-Control", "no-store")
	}
}

// Write encodes v as the response body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter, v any) {
	b.writeHeaders(w)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// Empty writes the status without a body; 204 unless Status was called.
func (b *JSONResponseBuilder) Empty(w http.ResponseWriter) {
	if b.statusCode == http.StatusOK {
		b.statusCode = http.StatusNoContent
	}
	b.writeHeaders(w)
	w.WriteHeader(b.statusCode)
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

// errBadRequest marks malformed input caught before reaching a service.
var errBadRequest = errors.New("bad request")

// classifyError maps err to a status code and a body safe to return to the
// caller. Unknown errors get a generic message.
func classifyError(err error) (int, ErrorBody, string) {
	var (
		verr *core.ValidationError
		perr *core.PreconditionError
	)
	switch {
	case errors.As(err, &perr):
		return http.StatusPreconditionFailed, ErrorBody{Error: "service not ready", Hint: perr.Hint}, log.ErrorTypePrecondition
	case errors.Is(err, core.ErrPrecondition):
		return http.StatusPreconditionFailed, ErrorBody{Error: err.Error()}, log.ErrorTypePrecondition
	case errors.Is(err, core.ErrPermissionDenied):
		return http.StatusForbidden, ErrorBody{Error: "permission denied"}, log.ErrorTypePermission
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Error: "not found"}, log.ErrorTypeNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, ErrorBody{Error: err.Error()}, log.ErrorTypeConflict
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, ErrorBody{Error: verr.Err.Error(), Field: verr.Field}, log.ErrorTypeValidation
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity, ErrorBody{Error: err.Error()}, log.ErrorTypeValidation
	case errors.Is(err, invoice.ErrUnknownTemplate), errors.Is(err, errBadRequest):
		return http.StatusBadRequest, ErrorBody{Error: err.Error()}, log.ErrorTypeValidation
	default:
		return http.StatusInternalServerError, ErrorBody{Error: "internal server error"}, log.ErrorTypeInternal
	}
}

// writeError logs err with the request scoped logger and writes the mapped
// response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body, errType := classifyError(err)

	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		fields := log.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", "")
		fields[log.FieldErrorType] = errType
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, log.ComponentHTTP, operationFor(r.Method), fields)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, status,
			log.FieldErrorType, errType,
			log.FieldError, err.Error())
	}
	NewJSONResponse().Status(status).Write(w, body)
}

func operationFor(method string) string {
	switch method {
	case http.MethodPost:
		return log.OpCreate
	case http.MethodPut:
		return log.OpUpdate
	case http.MethodDelete:
		return log.OpDelete
	default:
		return log.OpRead
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	NewJSONResponse().Status(status).Write(w, ErrorBody{Error: msg})
}

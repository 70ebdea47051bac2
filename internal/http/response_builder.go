package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"aura/internal/core"
	"aura/internal/log"
)

// JSONResponse provides a fluent API for building JSON responses.
type JSONResponse struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponse {
	return &JSONResponse{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponse) Status(code int) *JSONResponse {
	b.statusCode = code
	return b
}

func (b *JSONResponse) Header(name, value string) *JSONResponse {
	b.headers[name] = value
	return b
}

func (b *JSONResponse) Body(v any) *JSONResponse {
	b.body = v
	return b
}

// Send writes headers, status and the encoded body.
func (b *JSONResponse) Send(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	for k, v := range b.headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(b.statusCode)
	if b.body != nil {
		_ = json.NewEncoder(w).Encode(b.body)
	}
}

type errorPayload struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// StatusFor maps an error kind onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, core.ErrInconsistent):
		return http.StatusInternalServerError
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse builds the JSON error body for err.
func ErrorResponse(err error) *JSONResponse {
	return NewJSONResponse().
		Status(StatusFor(err)).
		Body(errorPayload{Error: core.PublicMessage(err), Kind: core.Kind(err)})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status < http.StatusInternalServerError {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Request rejected",
			log.FieldErrorKind, core.Kind(err),
			log.FieldError, err.Error())
	}
	ErrorResponse(err).Send(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	NewJSONResponse().
		Status(http.StatusTooManyRequests).
		Body(errorPayload{Error: "Rate limit exceeded. Please try again later.", Kind: "rate_limited"}).
		Send(w)
}

// Package respond writes the JSON envelope every API response uses and maps
// domain errors onto HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/dmitrijs2005/workloadtracker/internal/common"
	"github.com/dmitrijs2005/workloadtracker/internal/logging"
)

// Envelope is the body of every response.
type Envelope struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Data      any          `json:"data,omitempty"`
	Error     string       `json:"error,omitempty"`
	Errors    []FieldError `json:"errors,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Writer renders envelopes. Outside production, failures carry the raw
// error text in the error field.
type Writer struct {
	production bool
	logger     logging.Logger
	now        func() time.Time
}

func New(production bool, logger logging.Logger) *Writer {
	return &Writer{production: production, logger: logger, now: time.Now}
}

// OK writes a success envelope.
func (w *Writer) OK(rw http.ResponseWriter, status int, message string, data any) {
	writeJSON(rw, status, Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: w.now().UTC(),
	})
}

// Fail maps err to a status and a caller-safe message and writes it.
func (w *Writer) Fail(rw http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	msg, ok := common.PublicMessage(err)
	if !ok {
		msg = defaultMessage(status)
	}

	if status >= http.StatusInternalServerError {
		w.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	env := w.failure(msg, err)
	var ve *common.ValidationError
	if errors.As(err, &ve) {
		env.Errors = fieldErrors(ve)
	}
	writeJSON(rw, status, env)
}

// Message writes a failure with an explicit status and message.
func (w *Writer) Message(rw http.ResponseWriter, status int, message string, err error) {
	writeJSON(rw, status, w.failure(message, err))
}

func (w *Writer) failure(message string, err error) Envelope {
	env := Envelope{Message: message, Timestamp: w.now().UTC()}
	if err != nil && !w.production {
		env.Error = err.Error()
	}
	return env
}

// Status maps an error kind onto its HTTP status.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrConnectivity):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func defaultMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Bad request"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Resource not found"
	case http.StatusConflict:
		return "Conflict"
	case http.StatusServiceUnavailable:
		return "Service temporarily unavailable"
	default:
		return "Internal Server Error"
	}
}

func fieldErrors(ve *common.ValidationError) []FieldError {
	out := make([]FieldError, 0, len(ve.Fields))
	for f, m := range ve.Fields {
		out = append(out, FieldError{Field: f, Message: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

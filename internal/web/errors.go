package web

// errors.go turns handler errors into responses.
//
// Every error is logged with its technical text and request ID, then mapped
// through core.MapError to a user message with a stable code. HTMX requests
// get an HTML alert fragment; everything else gets JSON.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/sheetcheck/internal/core"
	"github.com/JonMunkholm/sheetcheck/internal/export"
	"github.com/JonMunkholm/sheetcheck/internal/logging"
	"github.com/JonMunkholm/sheetcheck/internal/tabular"
	"github.com/JonMunkholm/sheetcheck/internal/web/templates"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Action  string   `json:"action,omitempty"`
	Code    string   `json:"code"`
	Fields  []string `json:"fields,omitempty"` // Missing rule parameters
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var (
		sourceErr *tabular.SourceFormatError
		sizeErr   *http.MaxBytesError
	)

	switch {
	case errors.Is(err, core.ErrInvalidRuleParameters):
		return http.StatusUnprocessableEntity
	case errors.As(err, &sizeErr), errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &sourceErr),
		errors.Is(err, tabular.ErrEmptyFile),
		errors.Is(err, errNoFile),
		errors.Is(err, errBadRequest),
		errors.Is(err, core.ErrNonScalarValue),
		errors.Is(err, core.ErrRowOutOfRange),
		errors.Is(err, export.ErrInvalidRuleSet):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyUploads), errors.Is(err, core.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, export.ErrSinkDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// fail responds with the status statusFor picks.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, err, statusFor(err))
}

// respondError logs err and writes the mapped user message.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	if isHTMX(r) {
		renderErrorPartial(w, r, msg, status)
		return
	}

	resp := ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
	var perr *core.InvalidRuleParametersError
	if errors.As(err, &perr) {
		resp.Fields = perr.Missing
	}
	w.Header().Set("X-Request-ID", middleware.GetReqID(r.Context()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// renderErrorPartial writes an HTMX-swappable error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render error partial", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

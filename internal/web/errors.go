package web

// Every error leaves the API the same way:
//  1. a handler calls respondError(w, r, err)
//  2. the error is mapped to a UserMessage (upload errors here, the rest via etl.MapError)
//  3. the technical error is logged with the request id
//  4. the client gets {error, message, action, code} and a matching status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/statsetl/internal/etl"
	"github.com/JonMunkholm/statsetl/internal/logging"
)

// Upload errors.
var (
	ErrNoFile          = errors.New("no file provided")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedFile = errors.New("unsupported file type")
)

var uploadMessages = map[error]etl.UserMessage{
	ErrNoFile: {
		Message: "No file was provided",
		Action:  "Attach the workbook as the \"file\" form field",
		Code:    "UPL001",
	},
	ErrFileTooLarge: {
		Message: "The file is too large",
		Action:  "Split the workbook or ask an administrator to raise the limit",
		Code:    "UPL002",
	},
	ErrUnsupportedFile: {
		Message: "Only Excel workbooks are accepted",
		Action:  "Save the file as .xlsx and upload it again",
		Code:    "UPL003",
	},
}

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func mapError(err error) etl.UserMessage {
	for target, msg := range uploadMessages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return etl.MapError(err)
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNoFile), errors.Is(err, ErrUnsupportedFile):
		return http.StatusBadRequest
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, etl.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, etl.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its user-facing form.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := mapError(err)
	status := statusFor(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "30")
	}
	writeJSONStatus(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// headers are already sent
		slog.Error("json encode failed", "error", err)
	}
}

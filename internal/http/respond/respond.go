// Package respond writes JSON bodies and the shared error envelope.
package respond

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rogerio-castellano/product-management/internal/apperr"
	"github.com/rogerio-castellano/product-management/internal/logger"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Status    int               `json:"status"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	out, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindQuery:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error maps err to its status and envelope. Unclassified errors are logged and
// reported without detail.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	body := ErrorResponse{Timestamp: time.Now().UTC()}

	if !apperr.As(err, &appErr) || appErr.Kind == apperr.KindUnknown {
		logger.FromContext(r.Context()).Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		body.Status = http.StatusInternalServerError
		body.Message = "internal server error"
		JSON(w, body.Status, body)
		return
	}

	body.Status = statusFor(appErr.Kind)
	body.Message = appErr.Msg
	body.Errors = appErr.Fields
	if appErr.Kind == apperr.KindUpstream {
		logger.FromContext(r.Context()).Warn("upstream failure", zap.Error(err))
	}
	JSON(w, body.Status, body)
}

// Message writes the envelope for a status without an underlying error.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorResponse{Status: status, Message: msg, Timestamp: time.Now().UTC()})
}

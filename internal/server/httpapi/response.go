package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/incidentportal/internal/common"
)

const (
	msgInternal        = "Internal server error"
	msgTooManyRequests = "Too many requests from this IP, please try again later."
)

// envelope is the body of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// errorKinds maps sentinel kinds to a status. The fallback message is used
// when the error carries no client-facing message of its own.
var errorKinds = []struct {
	kind     error
	status   int
	fallback string
}{
	{common.ErrorValidation, http.StatusBadRequest, "Validation error"},
	{common.ErrorAlreadyExists, http.StatusBadRequest, "Resource already exists"},
	{common.ErrTokenExpired, http.StatusUnauthorized, msgTokenExpired},
	{common.ErrInvalidToken, http.StatusUnauthorized, msgInvalidToken},
	{common.ErrorUnauthenticated, http.StatusUnauthorized, msgAuthRequired},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "Unauthorized"},
	{common.ErrorNotFound, http.StatusNotFound, "Not found"},
	{common.ErrorTooManyRequests, http.StatusTooManyRequests, msgTooManyRequests},
}

// classify returns the status and client message for err. Unknown errors
// become a generic 500.
func classify(err error) (int, string) {
	for _, k := range errorKinds {
		if !errors.Is(err, k.kind) {
			continue
		}
		if msg, ok := common.MessageOf(err); ok {
			return k.status, msg
		}
		return k.status, k.fallback
	}
	return http.StatusInternalServerError, msgInternal
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

// writeError is the single place where errors become HTTP responses.
func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		a.log.Error(r.Context(), "request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()))
	}
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

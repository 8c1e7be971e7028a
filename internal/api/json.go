package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starford/blockpad/internal/apperr"
	"github.com/starford/blockpad/internal/editor"
	"github.com/starford/blockpad/internal/translate"
)

const maxBodyBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// statusFor maps domain errors to HTTP statuses. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrAlreadyExists), errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrInactive), errors.Is(err, editor.ErrDestroyed):
		return http.StatusConflict
	case errors.Is(err, editor.ErrSave):
		return http.StatusUnprocessableEntity
	case errors.Is(err, editor.ErrUnknownType), errors.Is(err, editor.ErrConfig):
		return http.StatusBadRequest
	case errors.Is(err, translate.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, translate.ErrNotCommand), errors.Is(err, translate.ErrUnknownCommand),
		errors.Is(err, translate.ErrUnknownLanguage), errors.Is(err, translate.ErrUnknownModel),
		errors.Is(err, translate.ErrEmptyText):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeError writes err with its mapped status. Server errors are logged
// and hidden from the client.
func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, status, errorBody("internal error"))
		return
	}
	writeJSON(w, status, errorBody(err.Error()))
}

// decodeBody reads a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

var errMissingIndex = errors.New("index is required")

type errUnknownMessage string

func (e errUnknownMessage) Error() string {
	return "unknown message type " + strconv.Quote(string(e))
}

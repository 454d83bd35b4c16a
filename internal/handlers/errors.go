package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/krishivue/agri-api/internal/model"
)

var errMethodNotAllowed = errors.New("method not allowed")

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps pipeline failures onto HTTP status codes. Every endpoint
// goes through it.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, errMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrDecode), errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrTransport), errors.Is(err, model.ErrProtocol):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	attrs := []any{"path", r.URL.Path, "status", status, "err", err, "request_id", RequestID(r.Context())}
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", attrs...)
	} else {
		slog.Warn("Request rejected", attrs...)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeJSON encodes data before the status goes out, so an encode failure
// still reaches the client as a 500.
func writeJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		buf.Reset()
		json.NewEncoder(&buf).Encode(errorResponse{Error: "failed to encode response"})
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Unable to write JSON response", "err", err)
	}
}

// Package response writes the JSON envelope every endpoint answers with.
package response

import (
	"encoding/json"
	"net/http"

	"skillenergy/internal/apperr"

	"github.com/rs/zerolog"
)

// Envelope is the body of every response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes an error envelope with a message that is already safe to show.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

// Error maps err to its status and writes the client-safe message. Internal causes are only logged.
func Error(w http.ResponseWriter, log zerolog.Logger, err error) {
	kind := apperr.KindOf(err)
	status := kind.Status()
	if kind == apperr.KindInternal {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		log.Warn().Err(err).Int("status", status).Str("kind", kind.String()).Msg("Request rejected")
	}
	Fail(w, status, apperr.PublicMessage(err))
}

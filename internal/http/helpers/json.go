// Package helpers contiene funciones auxiliares HTTP compartidas por controllers.
package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/userauth/internal/http/errors"
)

const maxJSONBody = 1 << 20

// ReadJSON decodifica JSON de forma tolerante (no falla por campos desconocidos).
// Limita el body a 1MB. Devuelve false si ya escribió el error HTTP.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if ct != "" && !strings.Contains(ct, "application/json") {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Content-Type must be application/json"))
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperrors.WriteError(w, httperrors.ErrBodyTooLarge)
			return false
		}
		httperrors.WriteError(w, httperrors.ErrInvalidJSON.WithCause(err))
		return false
	}
	return true
}

// envelope es el sobre de éxito.
type envelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// WriteSuccess escribe {success, statusCode, message, data, timestamp}.
// Un message vacío toma el default del status.
func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	if message == "" {
		message = defaultMessage(status)
	}
	WriteJSON(w, status, envelope{
		Success:    status >= 200 && status < 300,
		StatusCode: status,
		Message:    message,
		Data:       data,
		Timestamp:  now().Format(timestampLayout),
	})
}

// WriteJSON escribe una respuesta JSON sin sobre (health, redirects de error, etc).
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func defaultMessage(status int) string {
	switch status {
	case http.StatusOK:
		return "Request successful"
	case http.StatusCreated:
		return "Resource created successfully"
	case http.StatusNoContent:
		return "Resource deleted successfully"
	default:
		return "Operation completed"
	}
}

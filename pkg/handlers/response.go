package handlers

import (
	"encoding/json"
	"net/http"
)

// WriteJSON encodes data as the response body with the JSON content type.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	return json.NewEncoder(w).Encode(data)
}

// ErrorResponse writes a machine-readable error code alongside a human
// message.
func ErrorResponse(w http.ResponseWriter, status int, code, message string) error {
	return WriteJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

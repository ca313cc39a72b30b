// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Write writes {"error": msg}.
func Write(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Body{Error: msg})
}

// WriteDetails writes {"error": msg, "details": details}.
func WriteDetails(w http.ResponseWriter, status int, msg string, details any) {
	WriteJSON(w, status, Body{Error: msg, Details: details})
}

// Handler is the errors feature handler. It serves the router's fallback
// responses so unknown paths get JSON instead of chi's plain text.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound is installed as the router's NotFound handler.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusNotFound, "not found")
}

// MethodNotAllowed is installed as the router's MethodNotAllowed handler.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Write(w, http.StatusMethodNotAllowed, "method not allowed")
}

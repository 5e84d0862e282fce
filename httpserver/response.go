package httpserver

import (
	"encoding/json"
	"net/http"
)

// TokenResponse is the body of a successful GET /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}

// ErrorResponse is the body of every JSON error the gateway writes.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

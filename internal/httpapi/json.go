package httpapi

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the flat error shape the frontend consumes: callers read
// the message field when present.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, msg string) {
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

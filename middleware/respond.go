package middleware

import (
	"encoding/json"
	"net/http"
)

const (
	msgTooManyRequests = "Too Many Requests"
	msgTokenMissing    = "Token no proporcionado"
	msgInvalidToken    = "Invalid Token"
	msgForbidden       = "Unauthorized"
)

type errorBody struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Type: "error", Msg: msg})
}

// Package httputil holds the response writers shared by the HTTP handlers.
package httputil

import (
	"encoding/json"
	"io"
	"net/http"
)

// WriteJSON encodes v as the response body with the given status code.
// Encoding errors are ignored once the header is written.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteRawJSON writes an already encoded JSON document unchanged
func WriteRawJSON(w http.ResponseWriter, code int, doc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, doc)
}

// WriteError writes {"error": msg}
func WriteError(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, map[string]string{"error": msg})
}

// WriteSuccess writes {"status": "ok"}
func WriteSuccess(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// requireAdmin enforces the bearer-token admin gate. A missing or malformed
// Authorization header is a 401; a well-formed but wrong token is a 403.
// Returns true if the request may proceed.
func requireAdmin(w http.ResponseWriter, r *http.Request, adminKey string) bool {
	authHeader := r.Header.Get("Authorization")

	if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		slog.Warn("admin request without bearer credential", "path", r.URL.Path)
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}

	token := strings.TrimSpace(authHeader[len("bearer "):])
	if subtle.ConstantTimeCompare([]byte(token), []byte(adminKey)) != 1 {
		slog.Warn("admin request with invalid token", "path", r.URL.Path)
		writeError(w, http.StatusForbidden, "Forbidden")
		return false
	}

	return true
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError writes a JSON error body with the given status code
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

package handler

import (
	"encoding/json"
	"net/http"
	"strings"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// groupCode reads the {code} path parameter. Codes are case-insensitive on
// input and stored uppercase.
func groupCode(r *http.Request) string {
	return NormalizeCode(r.PathValue("code"))
}

// NormalizeCode trims and uppercases a group code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

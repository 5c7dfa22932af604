package handler

import (
	"encoding/json"
	"net/http"
	"time"
)

const dateLayout = "2006-01-02"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// validTimeOfDay reports whether s is a well-formed "HH:MM" clock value.
func validTimeOfDay(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// parseTimeParam reads an RFC3339 query parameter, returning fallback
// when absent.
func parseTimeParam(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return fallback, nil
	}
	return time.Parse(time.RFC3339, value)
}

func parseDurationParam(r *http.Request, name string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return parsed, nil
}

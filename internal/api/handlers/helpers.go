package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"trip-search-service/internal/platform/obs"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "encode failed",
			"req_id", obs.RequestID(r.Context()), "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// Query parsing with range checks. Each returns an error message suitable
// for a 400 response.

func cityParam(q url.Values, key string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(q.Get(key)))
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	if !isCityCode(v) {
		return "", fmt.Errorf("%s must be a 3-letter code", key)
	}
	return v, nil
}

// cityListParam parses a comma-separated list of codes, dropping blanks and duplicates.
func cityListParam(q url.Values, key string, required bool) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(q.Get(key), ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code == "" {
			continue
		}
		if !isCityCode(code) {
			return nil, fmt.Errorf("%s contains invalid code %q", key, code)
		}
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	if required && len(out) == 0 {
		return nil, fmt.Errorf("%s is required", key)
	}
	return out, nil
}

func isCityCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func intParam(q url.Values, key string, fallback, lo, hi int, required bool) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		if required {
			return 0, fmt.Errorf("%s is required", key)
		}
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s must be between %d and %d", key, lo, hi)
	}
	return n, nil
}

func optionalIntParam(q url.Values, key string, lo, hi int) (*int, error) {
	if strings.TrimSpace(q.Get(key)) == "" {
		return nil, nil
	}
	n, err := intParam(q, key, 0, lo, hi, true)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func floatParam(q url.Values, key string, fallback float64, required bool) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		if required {
			return 0, fmt.Errorf("%s is required", key)
		}
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return f, nil
}

func boolParam(q url.Values, key string) (bool, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false", key)
	}
	return b, nil
}

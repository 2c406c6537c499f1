package utils

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ScalarToString renders a decoded JSON scalar the way it would appear in a
// CSV cell, so JSON and CSV input share one validation path. Objects,
// arrays and null yield "".
func ScalarToString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// TrimmedPtr trims *s and returns nil for nil or blank input.
func TrimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AnyToString renders a loosely typed JSON scalar as a string. The upstream
// sends some identifiers as numbers on one endpoint and strings on another.
func AnyToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// AnyToInt converts a loosely typed JSON scalar to an int, returning 0 when
// the value is missing or not numeric.
func AnyToInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case json.Number:
		i, _ := t.Int64()
		return int(i)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return i
	case bool:
		if t {
			return 1
		}
	}
	return 0
}

// AnyToBool interprets the truthiness of a loosely typed JSON scalar.
func AnyToBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s != "" && s != "0" && s != "false"
	}
	return false
}

// Mask shortens a secret for logging.
func Mask(secret string) string {
	if len(secret) > 14 {
		return secret[:8] + "..." + secret[len(secret)-6:]
	}
	if secret == "" {
		return "Unavailable"
	}
	return secret
}

// Value dereferences v, returning the zero value for nil.
func Value[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

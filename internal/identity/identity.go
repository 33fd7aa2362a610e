// Package identity canonicalizes heterogeneous train identifiers so records
// from different sources can be matched.
package identity

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Normalize produces the canonical string key for a train-like identifier.
// Missing values map to the empty string and numeric representations are
// coerced to their integral string form, so 123, 123.0, "123" and " 123 " all
// share one key. Normalize never fails; unrepresentable input degrades to "".
func Normalize(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return normalizeNumeric(x.String())
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	default:
		return ""
	}
}

// Match reports whether two records refer to the same train. Empty keys never
// match anything, including each other.
func Match(a, b any) bool {
	ka := Normalize(a)
	return ka != "" && ka == Normalize(b)
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// normalizeNumeric collapses a decimal string like "123.0" to "123" so JSON
// numbers and their string spellings share a key.
func normalizeNumeric(s string) string {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return formatFloat(f)
	}
	return strings.TrimSpace(s)
}

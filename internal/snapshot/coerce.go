package snapshot

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// AsString renders an untyped snapshot value as text. Nil becomes the empty
// string; strings pass through untouched.
func AsString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case bool:
		return strconv.FormatBool(val)
	case []any, map[string]any, []string:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	default:
		return fmt.Sprint(val)
	}
}

// AsNumber converts an untyped snapshot value to a finite float64. Locale
// decorations (yen signs, percent signs, thousands separators, whitespace,
// full-width digits) are stripped before parsing. Anything that does not
// resolve to a finite number yields 0.
func AsNumber(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(val)
	case float32:
		return finite(float64(val))
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case uint64:
		return float64(val)
	case uint32:
		return float64(val)
	case uint:
		return float64(val)
	case json.Number:
		return parseNumber(val.String())
	case string:
		return parseNumber(val)
	case bool:
		return 0
	default:
		return parseNumber(AsString(val))
	}
}

// SafeJSONArray reads a string sequence from either a native slice or a
// JSON-encoded array string. Empty elements are dropped; malformed input
// yields an empty slice.
func SafeJSONArray(v any) []string {
	switch val := v.(type) {
	case []string:
		return compactStrings(len(val), func(i int) any { return val[i] })
	case []any:
		return compactStrings(len(val), func(i int) any { return val[i] })
	case string:
		var parsed []any
		if err := json.Unmarshal([]byte(val), &parsed); err != nil {
			return []string{}
		}
		return compactStrings(len(parsed), func(i int) any { return parsed[i] })
	default:
		return []string{}
	}
}

func compactStrings(n int, at func(int) any) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if s := AsString(at(i)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseNumber(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '¥', r == '%', r == ',':
			return -1
		case unicode.IsSpace(r):
			return -1
		}
		return r
	}, width.Narrow.String(raw))
	if cleaned == "" {
		return 0
	}
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return finite(n)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

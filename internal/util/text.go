package util

import "strings"

// SanitizePostgresText drops invalid UTF-8 and NUL bytes, which Postgres
// rejects in text and jsonb columns.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}
	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// SanitizeProperties applies SanitizePostgresText to every string value of a
// property map, recursing into nested maps and slices. The input is not
// modified.
func SanitizeProperties(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[SanitizePostgresText(k)] = sanitizeValue(v)
	}
	return out
}

func sanitizeValue(v any) any {
	switch t := v.(type) {
	case string:
		return SanitizePostgresText(t)
	case map[string]any:
		return SanitizeProperties(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = sanitizeValue(t[i])
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i := range t {
			out[i] = SanitizePostgresText(t[i])
		}
		return out
	default:
		return v
	}
}

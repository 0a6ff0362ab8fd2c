package fields

import "strings"

// Values holds one user's profile values: strings, float64, bool, or lists of those.
type Values map[string]any

// Clone returns a shallow copy; list values are copied too.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for key, value := range v {
		if list, ok := value.([]any); ok {
			value = append([]any(nil), list...)
		}
		out[key] = value
	}
	return out
}

// IsEmpty reports whether value counts as unset.
func IsEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(typed) == ""
	case []any:
		return len(typed) == 0
	case []string:
		return len(typed) == 0
	}
	return false
}

// stringify renders a stored scalar the way it is compared against option values.
func stringify(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return formatNumber(typed)
	case bool:
		if typed {
			return "1"
		}
		return "0"
	case nil:
		return ""
	}
	return ""
}

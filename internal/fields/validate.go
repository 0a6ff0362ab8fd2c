package fields

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// Reason classifies a rejected value.
type Reason string

const (
	ReasonRequired    Reason = "required"
	ReasonNotAllowed  Reason = "not_allowed"
	ReasonCardinality Reason = "cardinality"
	ReasonNumeric     Reason = "numeric"
	ReasonBoolean     Reason = "boolean"
	ReasonInvalid     Reason = "invalid"
)

// MessageKey is the catalog key of the user-facing message for r.
func (r Reason) MessageKey() string {
	return "profile.validation." + string(r)
}

// Mode tells Validate whether stored values exist for the user.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

// Violation is one rejected field value.
type Violation struct {
	Field  string `json:"field"`
	Label  string `json:"-"`
	Reason Reason `json:"reason"`
	Value  string `json:"value,omitempty"`
}

func (v Violation) Error() string {
	if v.Value != "" {
		return fmt.Sprintf("%s: %s (%s)", v.Field, v.Reason, v.Value)
	}
	return fmt.Sprintf("%s: %s", v.Field, v.Reason)
}

// Translator renders a catalog key with arguments, such as a message.Printer's Sprintf.
type Translator func(key string, args ...any) string

// Message renders v through tr, naming the field by its label.
func (v Violation) Message(tr Translator) string {
	label := v.Label
	if label == "" {
		label = v.Field
	}
	return tr(v.Reason.MessageKey(), label, v.Value)
}

// ValidationErrors collects every violation found in one payload.
type ValidationErrors struct {
	Violations []Violation
}

func (e *ValidationErrors) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Error()
	}
	return "invalid profile values: " + strings.Join(parts, "; ")
}

// ByField groups violations by field name.
func (e *ValidationErrors) ByField() map[string][]Violation {
	out := make(map[string][]Violation)
	for _, v := range e.Violations {
		out[v.Field] = append(out[v.Field], v)
	}
	return out
}

// Messages renders every violation keyed by field name.
func (e *ValidationErrors) Messages(tr Translator) map[string][]string {
	out := make(map[string][]string)
	for _, v := range e.Violations {
		out[v.Field] = append(out[v.Field], v.Message(tr))
	}
	return out
}

// Validate checks incoming values against list for ctx and merges them over existing.
// Unknown keys and fields excluded from ctx are ignored. Empty values remove the key
// from the result. On failure the returned error is a *ValidationErrors.
func Validate(list FieldList, ctx Context, incoming map[string]any, existing Values, mode Mode) (Values, error) {
	merged := Values{}
	if mode == ModeUpdate {
		merged = existing.Clone()
	}

	var errs error
	keys := make([]string, 0, len(incoming))
	for key := range incoming {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		field, ok := list.Get(key)
		if !ok || field.Excluded(ctx) {
			continue
		}
		value, err := normalize(field, incoming[key])
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if IsEmpty(value) {
			delete(merged, key)
			continue
		}
		merged[key] = value
	}

	for _, field := range list.Visible(ctx) {
		if field.Required && missing(field, merged[field.Name]) && !failed(errs, field.Name) {
			errs = multierr.Append(errs, Violation{Field: field.Name, Label: field.Label, Reason: ReasonRequired})
		}
	}

	if errs == nil {
		return merged, nil
	}
	out := &ValidationErrors{}
	for _, err := range multierr.Errors(errs) {
		if v, ok := err.(Violation); ok {
			out.Violations = append(out.Violations, v)
		}
	}
	return nil, out
}

// missing treats an unchecked required checkbox as unset.
func missing(field Field, value any) bool {
	if field.Boolean {
		b, _ := value.(bool)
		return !b
	}
	return IsEmpty(value)
}

func failed(errs error, name string) bool {
	for _, err := range multierr.Errors(errs) {
		if v, ok := err.(Violation); ok && v.Field == name {
			return true
		}
	}
	return false
}

// normalize converts a decoded JSON value into the stored representation of field.
func normalize(field Field, raw any) (any, error) {
	var items []any
	switch typed := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		items = typed
	case []string:
		for _, s := range typed {
			items = append(items, s)
		}
	case map[string]any:
		return nil, Violation{Field: field.Name, Label: field.Label, Reason: ReasonInvalid}
	default:
		items = []any{typed}
	}

	var errs error
	values := make([]any, 0, len(items))
	for _, item := range items {
		value, err := coerce(field, item)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if IsEmpty(value) {
			continue
		}
		if !field.Allows(stringify(value)) {
			errs = multierr.Append(errs, Violation{Field: field.Name, Label: field.Label, Reason: ReasonNotAllowed, Value: stringify(value)})
			continue
		}
		values = append(values, value)
	}
	if errs != nil {
		return nil, errs
	}

	if field.Multiple {
		return values, nil
	}
	switch len(values) {
	case 0:
		return nil, nil
	case 1:
		return values[0], nil
	default:
		return nil, Violation{Field: field.Name, Label: field.Label, Reason: ReasonCardinality}
	}
}

func coerce(field Field, item any) (any, error) {
	switch item.(type) {
	case map[string]any, []any:
		return nil, Violation{Field: field.Name, Label: field.Label, Reason: ReasonInvalid}
	}

	switch {
	case field.Boolean:
		b, ok := parseBool(item)
		if !ok {
			return nil, Violation{Field: field.Name, Label: field.Label, Reason: ReasonBoolean, Value: scalarText(item)}
		}
		return b, nil
	case field.Numeric:
		if s, ok := item.(string); ok && strings.TrimSpace(s) == "" {
			return nil, nil
		}
		f, ok := parseNumber(item)
		if !ok {
			return nil, Violation{Field: field.Name, Label: field.Label, Reason: ReasonNumeric, Value: scalarText(item)}
		}
		return f, nil
	default:
		if s, ok := item.(string); ok {
			return strings.TrimSpace(s), nil
		}
		return scalarText(item), nil
	}
}

func parseBool(item any) (bool, bool) {
	switch typed := item.(type) {
	case bool:
		return typed, true
	case float64:
		if typed == 0 || typed == 1 {
			return typed == 1, true
		}
	case json.Number:
		return parseBool(string(typed))
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "1", "true", "on", "yes":
			return true, true
		case "0", "false", "off", "no", "":
			return false, true
		}
	}
	return false, false
}

func parseNumber(item any) (float64, bool) {
	switch typed := item.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case json.Number:
		f, err := typed.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		return f, err == nil
	}
	return 0, false
}

func scalarText(item any) string {
	switch typed := item.(type) {
	case json.Number:
		return typed.String()
	case int:
		return strconv.Itoa(typed)
	}
	return stringify(item)
}

package fields

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Context is one of the four places a profile field can be shown or edited.
type Context string

const (
	AdminShow  Context = "admin_show"
	AdminEdit  Context = "admin_edit"
	PublicShow Context = "public_show"
	PublicEdit Context = "public_edit"
)

// Contexts lists every context in a stable order.
var Contexts = []Context{AdminShow, AdminEdit, PublicShow, PublicEdit}

// ParseContext validates a context name.
func ParseContext(value string) (Context, error) {
	ctx := Context(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range Contexts {
		if ctx == known {
			return ctx, nil
		}
	}
	return "", fmt.Errorf("unknown context %q", value)
}

// Editing reports whether the context renders a form.
func (c Context) Editing() bool {
	return c == AdminEdit || c == PublicEdit
}

// Option is an allowed value and its label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field is the derived metadata for one profile field.
type Field struct {
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	Label       string           `json:"label"`
	Info        string           `json:"info,omitempty"`
	EmptyOption string           `json:"empty_option,omitempty"`
	Required    bool             `json:"required"`
	Multiple    bool             `json:"multiple"`
	Numeric     bool             `json:"numeric"`
	Boolean     bool             `json:"boolean"`
	Options     []Option         `json:"options,omitempty"`
	Default     any              `json:"default,omitempty"`
	Attributes  map[string]any   `json:"attributes,omitempty"`
	Exclude     map[Context]bool `json:"exclude,omitempty"`
}

// Excluded reports whether the field is hidden in ctx.
func (f Field) Excluded(ctx Context) bool {
	return f.Exclude[ctx]
}

// Allows reports whether value is one of the option values. Fields without options
// accept anything.
func (f Field) Allows(value string) bool {
	if len(f.Options) == 0 || f.Boolean {
		return true
	}
	for _, opt := range f.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// OptionLabel returns the label of value, or value itself when it is not an option.
func (f Field) OptionLabel(value string) string {
	for _, opt := range f.Options {
		if opt.Value == value {
			return opt.Label
		}
	}
	return value
}

// FieldList is an ordered, name-indexed set of fields.
type FieldList struct {
	fields []Field
	index  map[string]int
}

// NewFieldList indexes fields by name. Later duplicates are ignored.
func NewFieldList(fields []Field) FieldList {
	list := FieldList{index: make(map[string]int, len(fields))}
	for _, field := range fields {
		if _, exists := list.index[field.Name]; exists {
			continue
		}
		list.index[field.Name] = len(list.fields)
		list.fields = append(list.fields, field)
	}
	return list
}

func (l FieldList) Len() int { return len(l.fields) }

// All returns a copy of every field in declaration order.
func (l FieldList) All() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

func (l FieldList) Names() []string {
	names := make([]string, len(l.fields))
	for i, field := range l.fields {
		names[i] = field.Name
	}
	return names
}

func (l FieldList) Get(name string) (Field, bool) {
	i, ok := l.index[name]
	if !ok {
		return Field{}, false
	}
	return l.fields[i], true
}

// Visible returns the fields not excluded in ctx.
func (l FieldList) Visible(ctx Context) []Field {
	out := make([]Field, 0, len(l.fields))
	for _, field := range l.fields {
		if !field.Excluded(ctx) {
			out = append(out, field)
		}
	}
	return out
}

func (l FieldList) MarshalJSON() ([]byte, error) {
	if l.fields == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.fields)
}

func (l *FieldList) UnmarshalJSON(data []byte) error {
	var fields []Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*l = NewFieldList(fields)
	return nil
}

// Definition is a compiled field list: the source text and what was derived from it.
type Definition struct {
	Source string    `json:"source"`
	Format Format    `json:"format"`
	Fields FieldList `json:"fields"`
}

// Compile parses src and builds its field list.
func Compile(src string, format Format) (Definition, error) {
	tree, used, err := Parse(src, format)
	if err != nil {
		return Definition{}, err
	}
	specs, exclusions, err := ReadElements(tree)
	if err != nil {
		return Definition{}, err
	}
	list, err := Build(specs, exclusions)
	if err != nil {
		return Definition{}, err
	}
	return Definition{Source: src, Format: used, Fields: list}, nil
}

// Build derives field metadata from element specifications.
func Build(specs []ElementSpec, exclusions Exclusions) (FieldList, error) {
	fields := make([]Field, 0, len(specs))
	for _, spec := range specs {
		typ := normalizeType(spec.Type)
		field := Field{
			Name:        spec.Name,
			Type:        typ,
			Label:       spec.Label,
			Info:        spec.Info,
			EmptyOption: spec.EmptyOption,
			Options:     spec.ValueOptions,
			Attributes:  spec.Attributes,
			Required:    truthy(spec.Attributes["required"]),
			Multiple:    truthy(spec.Attributes["multiple"]) || multiValuedTypes[typ],
			Numeric:     typ == "number" || typ == "range",
			Boolean:     typ == "checkbox",
		}
		if field.Label == "" {
			field.Label = spec.Name
		}
		if typ == "multiselect" {
			field.Type = "select"
		}
		if def, ok := spec.Attributes["value"]; ok {
			field.Default = def
		}

		for _, ctx := range spec.Exclude {
			field.exclude(ctx)
		}
		for ctx, names := range exclusions {
			for _, name := range names {
				if name == spec.Name {
					field.exclude(ctx)
				}
			}
		}
		fields = append(fields, field)
	}

	for ctx, names := range exclusions {
		for _, name := range names {
			if !containsName(fields, name) {
				return FieldList{}, fmt.Errorf("exclude.%s names unknown element %q", ctx, name)
			}
		}
	}
	return NewFieldList(fields), nil
}

func (f *Field) exclude(ctx Context) {
	if f.Exclude == nil {
		f.Exclude = map[Context]bool{}
	}
	f.Exclude[ctx] = true
}

func containsName(fields []Field, name string) bool {
	for _, field := range fields {
		if field.Name == name {
			return true
		}
	}
	return false
}

var multiValuedTypes = map[string]bool{
	"multicheckbox": true,
	"multiselect":   true,
}

// normalizeType lower-cases the element type and strips any class namespace, so
// "Laminas\Form\Element\Select" and "select" agree.
func normalizeType(typ string) string {
	typ = strings.TrimSpace(typ)
	if i := strings.LastIndexAny(typ, `\/`); i >= 0 {
		typ = typ[i+1:]
	}
	typ = strings.ToLower(typ)
	if typ == "" {
		return "text"
	}
	return typ
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package fields

// FormElement is one input of a rendered profile fieldset.
type FormElement struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Label       string         `json:"label"`
	Info        string         `json:"info,omitempty"`
	EmptyOption string         `json:"empty_option,omitempty"`
	Required    bool           `json:"required"`
	Multiple    bool           `json:"multiple"`
	Options     []Option       `json:"options,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	Value       any            `json:"value"`
}

// Fieldset returns the form elements for ctx in declaration order, filled with the
// stored value or the field default.
func Fieldset(list FieldList, ctx Context, values Values) []FormElement {
	visible := list.Visible(ctx)
	out := make([]FormElement, 0, len(visible))
	for _, field := range visible {
		value, ok := values[field.Name]
		if !ok || IsEmpty(value) {
			value = field.Default
		}
		out = append(out, FormElement{
			Name:        field.Name,
			Type:        field.Type,
			Label:       field.Label,
			Info:        field.Info,
			EmptyOption: field.EmptyOption,
			Required:    field.Required,
			Multiple:    field.Multiple,
			Options:     field.Options,
			Attributes:  field.Attributes,
			Value:       value,
		})
	}
	return out
}

// DisplayValue is a stored value prepared for a show page.
type DisplayValue struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Value   any      `json:"value"`
	Display []string `json:"display"`
}

// Display returns the non-empty values visible in ctx with option labels resolved.
func Display(list FieldList, ctx Context, values Values) []DisplayValue {
	var out []DisplayValue
	for _, field := range list.Visible(ctx) {
		value, ok := values[field.Name]
		if !ok || IsEmpty(value) {
			continue
		}

		items, isList := value.([]any)
		if !isList {
			items = []any{value}
		}
		display := make([]string, 0, len(items))
		for _, item := range items {
			display = append(display, field.OptionLabel(stringify(item)))
		}
		out = append(out, DisplayValue{
			Name:    field.Name,
			Label:   field.Label,
			Value:   value,
			Display: display,
		})
	}
	return out
}

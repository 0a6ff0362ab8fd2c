package fields

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/mitchellh/mapstructure"
)

var elementNamePattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// ElementSpec is one entry under "elements" as written by the administrator.
type ElementSpec struct {
	Key          string
	Name         string
	Type         string
	Label        string
	Info         string
	EmptyOption  string
	ValueOptions []Option
	Exclude      []Context
	Options      map[string]any
	Attributes   map[string]any
}

// Exclusions maps a context to the element names hidden there.
type Exclusions map[Context][]string

type elementOptions struct {
	Label       string         `mapstructure:"label"`
	Info        string         `mapstructure:"info"`
	EmptyOption string         `mapstructure:"empty_option"`
	Remain      map[string]any `mapstructure:",remain"`
}

// ReadElements extracts element specifications and exclusion lists from a parsed tree.
func ReadElements(tree *Tree) ([]ElementSpec, Exclusions, error) {
	exclusions, err := readExclusions(tree)
	if err != nil {
		return nil, nil, err
	}

	raw, ok := tree.Get("elements")
	if !ok {
		return nil, exclusions, nil
	}
	elements, ok := raw.(*Tree)
	if !ok {
		if s, isString := raw.(string); isString && s == "" {
			return nil, exclusions, nil
		}
		return nil, nil, errors.New("elements must be a group of element definitions")
	}

	specs := make([]ElementSpec, 0, elements.Len())
	seen := make(map[string]string, elements.Len())
	for _, key := range elements.Keys() {
		node, ok := elements.Child(key)
		if !ok {
			return nil, nil, fmt.Errorf("element %q must be a group", key)
		}
		spec, err := readElement(key, node)
		if err != nil {
			return nil, nil, err
		}
		if other, dup := seen[spec.Name]; dup {
			return nil, nil, fmt.Errorf("elements %q and %q share the name %q", other, key, spec.Name)
		}
		seen[spec.Name] = key
		specs = append(specs, spec)
	}
	return specs, exclusions, nil
}

func readElement(key string, node *Tree) (ElementSpec, error) {
	spec := ElementSpec{
		Key:        key,
		Name:       node.String("name"),
		Type:       node.String("type"),
		Attributes: map[string]any{},
	}
	if spec.Name == "" {
		spec.Name = key
	}
	if !elementNamePattern.MatchString(spec.Name) {
		return ElementSpec{}, fmt.Errorf("element %q: invalid name %q", key, spec.Name)
	}

	if raw, ok := node.Get("options"); ok {
		options, isTree := raw.(*Tree)
		if !isTree {
			return ElementSpec{}, fmt.Errorf("element %q: options must be a group", key)
		}
		var decoded elementOptions
		if err := decodeLoose(options.Map(), &decoded); err != nil {
			return ElementSpec{}, fmt.Errorf("element %q: %w", key, err)
		}
		spec.Label = decoded.Label
		spec.Info = decoded.Info
		spec.EmptyOption = decoded.EmptyOption

		valueOptions, err := readValueOptions(options)
		if err != nil {
			return ElementSpec{}, fmt.Errorf("element %q: %w", key, err)
		}
		spec.ValueOptions = valueOptions

		if excl, ok := options.Get("exclude"); ok {
			for _, name := range asStrings(excl) {
				ctx, err := ParseContext(name)
				if err != nil {
					return ElementSpec{}, fmt.Errorf("element %q: %w", key, err)
				}
				spec.Exclude = append(spec.Exclude, ctx)
			}
		}
		delete(decoded.Remain, "value_options")
		delete(decoded.Remain, "exclude")
		spec.Options = decoded.Remain
	}

	if raw, ok := node.Get("attributes"); ok {
		attrs, isTree := raw.(*Tree)
		if !isTree {
			return ElementSpec{}, fmt.Errorf("element %q: attributes must be a group", key)
		}
		if err := decodeLoose(attrs.Map(), &spec.Attributes); err != nil {
			return ElementSpec{}, fmt.Errorf("element %q: %w", key, err)
		}
	}
	return spec, nil
}

// readValueOptions accepts a keyed group (value = key) or a list of labels or of
// {value, label} groups. A list nested in a group comes from repeated XML elements.
func readValueOptions(options *Tree) ([]Option, error) {
	raw, ok := options.Get("value_options")
	if !ok {
		return nil, nil
	}

	var out []Option
	switch typed := raw.(type) {
	case *Tree:
		for _, key := range typed.Keys() {
			item, _ := typed.Get(key)
			if repeated, isList := item.([]any); isList {
				for _, entry := range repeated {
					opt, err := optionFrom("", entry)
					if err != nil {
						return nil, err
					}
					out = append(out, opt)
				}
				continue
			}
			opt, err := optionFrom(key, item)
			if err != nil {
				return nil, err
			}
			out = append(out, opt)
		}
	case []any:
		for _, item := range typed {
			opt, err := optionFrom("", item)
			if err != nil {
				return nil, err
			}
			out = append(out, opt)
		}
	case string:
		if typed != "" {
			return nil, errors.New("value_options must be a group or a list")
		}
	}
	return out, nil
}

func optionFrom(key string, item any) (Option, error) {
	switch typed := item.(type) {
	case string:
		if key == "" {
			return Option{Value: typed, Label: typed}, nil
		}
		return Option{Value: key, Label: typed}, nil
	case *Tree:
		var opt Option
		if err := decodeLoose(typed.Map(), &opt); err != nil {
			return Option{}, err
		}
		if opt.Value == "" {
			opt.Value = key
		}
		if opt.Value == "" {
			return Option{}, errors.New("value option without a value")
		}
		if opt.Label == "" {
			opt.Label = opt.Value
		}
		return opt, nil
	}
	return Option{}, fmt.Errorf("unsupported value option %v", item)
}

func readExclusions(tree *Tree) (Exclusions, error) {
	raw, ok := tree.Get("exclude")
	if !ok {
		return nil, nil
	}
	node, ok := raw.(*Tree)
	if !ok {
		return nil, errors.New("exclude must be a group keyed by context")
	}

	exclusions := Exclusions{}
	for _, key := range node.Keys() {
		ctx, err := ParseContext(key)
		if err != nil {
			return nil, err
		}
		value, _ := node.Get(key)
		exclusions[ctx] = append(exclusions[ctx], asStrings(value)...)
	}
	return exclusions, nil
}

func decodeLoose(input any, output any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

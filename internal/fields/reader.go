package fields

import (
	"fmt"
	"strings"
)

// Format names a field-list syntax.
type Format string

const (
	FormatAuto Format = "auto"
	FormatINI  Format = "ini"
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat normalises a user supplied format name. An empty name means auto.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatINI, FormatXML, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown field list format %q", value)
	}
}

// DetectFormat guesses the syntax of src. YAML is never guessed because most INI
// documents are also valid YAML scalars.
func DetectFormat(src string) Format {
	trimmed := strings.TrimSpace(src)
	switch {
	case strings.HasPrefix(trimmed, "<"):
		return FormatXML
	case strings.HasPrefix(trimmed, "{"):
		return FormatJSON
	default:
		return FormatINI
	}
}

// SyntaxError reports a field list that could not be read.
type SyntaxError struct {
	Format Format
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid %s field list: %v", e.Format, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Parse reads src into an ordered tree and returns the format actually used.
// Blank input yields an empty tree.
func Parse(src string, format Format) (*Tree, Format, error) {
	if format == "" || format == FormatAuto {
		format = DetectFormat(src)
	}
	if strings.TrimSpace(src) == "" {
		return NewTree(), format, nil
	}

	var (
		tree *Tree
		err  error
	)
	switch format {
	case FormatINI:
		tree, err = parseINI(src)
	case FormatXML:
		tree, err = parseXML(src)
	case FormatJSON:
		tree, err = parseJSON(src)
	case FormatYAML:
		tree, err = parseYAML(src)
	default:
		return nil, format, fmt.Errorf("unknown field list format %q", format)
	}
	if err != nil {
		return nil, format, &SyntaxError{Format: format, Err: err}
	}
	return tree, format, nil
}

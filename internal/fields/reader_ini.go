package fields

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

var iniLoadOptions = ini.LoadOptions{
	AllowShadows:              true,
	IgnoreInlineComment:       true,
	KeyValueDelimiters:        "=",
	UnescapeValueDoubleQuotes: true,
	SkipUnrecognizableLines:   false,
	PreserveSurroundedQuote:   false,
}

// parseINI expands dotted keys into nested nodes. Section names prefix their keys and
// a trailing "[]" appends every occurrence of the key to a list.
func parseINI(src string) (*Tree, error) {
	file, err := ini.LoadSources(iniLoadOptions, []byte(src))
	if err != nil {
		return nil, err
	}

	root := NewTree()
	for _, section := range file.Sections() {
		prefix := ""
		if name := section.Name(); name != ini.DefaultSection {
			prefix = strings.TrimSpace(name) + "."
		}
		for _, key := range section.Keys() {
			name := prefix + strings.TrimSpace(key.Name())
			appendMode := strings.HasSuffix(name, "[]")
			name = strings.TrimSuffix(name, "[]")

			path := splitPath(name)
			if len(path) == 0 {
				return nil, fmt.Errorf("empty key in section %q", section.Name())
			}

			if appendMode {
				for _, value := range key.ValueWithShadows() {
					if err := insertPath(root, path, value, true); err != nil {
						return nil, err
					}
				}
				continue
			}

			values := key.ValueWithShadows()
			value := key.Value()
			if len(values) > 0 {
				value = values[len(values)-1]
			}
			if err := insertPath(root, path, value, false); err != nil {
				return nil, err
			}
		}
	}
	return root, nil
}

func splitPath(name string) []string {
	var out []string
	for _, part := range strings.Split(name, ".") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func insertPath(root *Tree, path []string, value string, appendValue bool) error {
	node := root
	for i, segment := range path[:len(path)-1] {
		existing, ok := node.Get(segment)
		if !ok {
			child := NewTree()
			node.Set(segment, child)
			node = child
			continue
		}
		child, isNode := existing.(*Tree)
		if !isNode {
			return fmt.Errorf("key %q is both a value and a group", strings.Join(path[:i+1], "."))
		}
		node = child
	}

	last := path[len(path)-1]
	existing, ok := node.Get(last)
	if _, isNode := existing.(*Tree); ok && isNode {
		return fmt.Errorf("key %q is both a value and a group", strings.Join(path, "."))
	}
	if !appendValue {
		node.Set(last, value)
		return nil
	}

	list, _ := existing.([]any)
	node.Set(last, append(list, value))
	return nil
}

package fields

import (
	"sort"
	"strconv"
	"strings"
)

// Tree is an ordered mapping produced by the readers. Values are string, *Tree or []any.
type Tree struct {
	keys   []string
	values map[string]any
}

// NewTree returns an empty node.
func NewTree() *Tree {
	return &Tree{values: map[string]any{}}
}

// Set stores value under key. Re-setting a key keeps its original position.
func (n *Tree) Set(key string, value any) {
	if _, exists := n.values[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.values[key] = value
}

// Get returns the raw value stored under key.
func (n *Tree) Get(key string) (any, bool) {
	if n == nil {
		return nil, false
	}
	value, ok := n.values[key]
	return value, ok
}

// Child returns the node stored under key, if it is one.
func (n *Tree) Child(key string) (*Tree, bool) {
	value, ok := n.Get(key)
	if !ok {
		return nil, false
	}
	child, ok := value.(*Tree)
	return child, ok
}

// String returns the scalar stored under key.
func (n *Tree) String(key string) string {
	value, _ := n.Get(key)
	s, _ := value.(string)
	return s
}

// Keys returns keys in insertion order.
func (n *Tree) Keys() []string {
	if n == nil {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Len reports the number of keys.
func (n *Tree) Len() int {
	if n == nil {
		return 0
	}
	return len(n.keys)
}

// Map converts the node into plain maps and slices, dropping order.
func (n *Tree) Map() map[string]any {
	if n == nil {
		return nil
	}
	out := make(map[string]any, len(n.keys))
	for _, key := range n.keys {
		out[key] = plain(n.values[key])
	}
	return out
}

func plain(value any) any {
	switch typed := value.(type) {
	case *Tree:
		return typed.Map()
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = plain(item)
		}
		return out
	default:
		return typed
	}
}

// asList flattens a value into list items. A node contributes its values in key order,
// with numeric keys sorted numerically so "10" follows "9".
func asList(value any) []any {
	switch typed := value.(type) {
	case nil:
		return nil
	case []any:
		return typed
	case *Tree:
		keys := typed.Keys()
		if allNumeric(keys) {
			sort.SliceStable(keys, func(i, j int) bool {
				a, _ := strconv.Atoi(keys[i])
				b, _ := strconv.Atoi(keys[j])
				return a < b
			})
		}
		out := make([]any, 0, len(keys))
		for _, key := range keys {
			out = append(out, typed.values[key])
		}
		return out
	default:
		return []any{typed}
	}
}

// asStrings flattens value into trimmed, non-empty strings. Scalars holding several
// entries separated by commas or whitespace are split.
func asStrings(value any) []string {
	var out []string
	for _, item := range asList(value) {
		switch typed := item.(type) {
		case string:
			for _, part := range strings.FieldsFunc(typed, func(r rune) bool {
				return r == ',' || r == ' ' || r == '\t' || r == '\n'
			}) {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		case []any, *Tree:
			out = append(out, asStrings(typed)...)
		}
	}
	return out
}

func allNumeric(keys []string) bool {
	if len(keys) == 0 {
		return false
	}
	for _, key := range keys {
		if _, err := strconv.Atoi(key); err != nil {
			return false
		}
	}
	return true
}

// truthy interprets the loose boolean spellings accepted in field lists.
func truthy(value any) bool {
	switch typed := value.(type) {
	case bool:
		return typed
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "1", "true", "yes", "on", "required", "multiple":
			return true
		}
	case float64:
		return typed != 0
	case int:
		return typed != 0
	}
	return false
}

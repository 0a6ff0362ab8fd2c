package fields

import (
	"errors"
	"strings"

	"github.com/beevik/etree"
)

// parseXML maps child elements of the document root to nodes. Repeated siblings become
// lists and leaf text becomes the value; XML attributes are not read.
func parseXML(src string) (*Tree, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(src); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("document has no root element")
	}

	value := xmlValue(root)
	if node, ok := value.(*Tree); ok {
		return node, nil
	}
	if strings.TrimSpace(value.(string)) == "" {
		return NewTree(), nil
	}
	return nil, errors.New("root element must contain elements, not text")
}

func xmlValue(el *etree.Element) any {
	children := el.ChildElements()
	if len(children) == 0 {
		return strings.TrimSpace(el.Text())
	}

	node := NewTree()
	for _, child := range children {
		key := child.Tag
		value := xmlValue(child)
		existing, ok := node.Get(key)
		if !ok {
			node.Set(key, value)
			continue
		}
		// Leaves are strings or nodes, so a list here was built from repeats.
		if list, isList := existing.([]any); isList {
			node.Set(key, append(list, value))
			continue
		}
		node.Set(key, []any{existing, value})
	}
	return node
}

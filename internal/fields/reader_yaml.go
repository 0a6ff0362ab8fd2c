package fields

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

func parseYAML(src string) (*Tree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return NewTree(), nil
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return NewTree(), nil
		}
		root = root.Content[0]
	}

	value, err := yamlValue(root)
	if err != nil {
		return nil, err
	}
	node, ok := value.(*Tree)
	if !ok {
		return nil, errors.New("top-level value must be a mapping")
	}
	return node, nil
}

func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: dangling alias", n.Line)
		}
		return yamlValue(n.Alias)
	case yaml.MappingNode:
		node := NewTree()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valueNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", keyNode.Line)
			}
			value, err := yamlValue(valueNode)
			if err != nil {
				return nil, err
			}
			if value != nil {
				node.Set(keyNode.Value, value)
			}
		}
		return node, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			value, err := yamlValue(item)
			if err != nil {
				return nil, err
			}
			if value != nil {
				list = append(list, value)
			}
		}
		return list, nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		return n.Value, nil
	}
	return nil, fmt.Errorf("line %d: unsupported node", n.Line)
}

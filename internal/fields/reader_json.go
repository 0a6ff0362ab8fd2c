package fields

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// parseJSON walks the token stream so object key order survives, which a decode into
// map[string]any would lose.
func parseJSON(src string) (*Tree, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(src)))
	dec.UseNumber()

	value, err := jsonValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level object")
	}
	node, ok := value.(*Tree)
	if !ok {
		return nil, errors.New("top-level value must be an object")
	}
	return node, nil
}

func jsonValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch typed := tok.(type) {
	case json.Delim:
		switch typed {
		case '{':
			node := NewTree()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				value, err := jsonValue(dec)
				if err != nil {
					return nil, err
				}
				if value != nil {
					node.Set(key, value)
				}
			}
			_, err := dec.Token()
			return node, err
		case '[':
			list := []any{}
			for dec.More() {
				value, err := jsonValue(dec)
				if err != nil {
					return nil, err
				}
				if value != nil {
					list = append(list, value)
				}
			}
			_, err := dec.Token()
			return list, err
		}
		return nil, fmt.Errorf("unexpected delimiter %v", typed)
	case string:
		return typed, nil
	case json.Number:
		return typed.String(), nil
	case bool:
		return strconv.FormatBool(typed), nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// node is a decoded document value. Objects keep their key order, which
// encoding/json and yaml maps would lose. Scalars other than strings keep
// their source text in raw.
type node struct {
	kind  nodeKind
	str   string
	keys  []string
	vals  map[string]*node
	items []*node
	raw   string
}

type nodeKind int

const (
	kindNull nodeKind = iota
	kindString
	kindNumber
	kindBool
	kindObject
	kindArray
)

func (k nodeKind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindNumber:
		return "number"
	case kindBool:
		return "boolean"
	case kindObject:
		return "object"
	case kindArray:
		return "array"
	}
	return "null"
}

func newObject() *node { return &node{kind: kindObject, vals: map[string]*node{}} }

func (n *node) set(key string, v *node) {
	if _, ok := n.vals[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.vals[key] = v
}

func stringNode(s string) *node { return &node{kind: kindString, str: s} }

func stringArray(ss []string) *node {
	n := &node{kind: kindArray, items: []*node{}}
	for _, s := range ss {
		n.items = append(n.items, stringNode(s))
	}
	return n
}

// =============================================================================
// JSON
// =============================================================================

func decodeJSON(data []byte) (*node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := decodeJSONValue(dec, "$")
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return n, nil
}

func decodeJSONValue(dec *json.Decoder, path string) (*node, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("unexpected end of input")
		}
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := newObject()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key := keyTok.(string)
				if _, dup := obj.vals[key]; dup {
					return nil, fmt.Errorf("%s: duplicate key %q", path, key)
				}
				v, err := decodeJSONValue(dec, path+"."+key)
				if err != nil {
					return nil, err
				}
				obj.set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := &node{kind: kindArray, items: []*node{}}
			for i := 0; dec.More(); i++ {
				v, err := decodeJSONValue(dec, fmt.Sprintf("%s[%d]", path, i))
				if err != nil {
					return nil, err
				}
				arr.items = append(arr.items, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
	case string:
		return &node{kind: kindString, str: t, raw: t}, nil
	case json.Number:
		return &node{kind: kindNumber, raw: t.String()}, nil
	case bool:
		return &node{kind: kindBool, raw: fmt.Sprint(t)}, nil
	case nil:
		return &node{kind: kindNull, raw: "null"}, nil
	}
	return nil, fmt.Errorf("%s: unexpected token %v", path, tok)
}

// encodeJSON writes n as 2-space indented JSON with a trailing newline.
// HTML characters are not escaped, so markers stay readable.
func encodeJSON(w io.Writer, n *node) error {
	var b bytes.Buffer
	writeJSON(&b, n, "")
	b.WriteByte('\n')
	_, err := w.Write(b.Bytes())
	return err
}

func writeJSON(b *bytes.Buffer, n *node, indent string) {
	inner := indent + "  "
	switch n.kind {
	case kindObject:
		if len(n.keys) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{\n")
		for i, k := range n.keys {
			b.WriteString(inner)
			writeJSONString(b, k)
			b.WriteString(": ")
			writeJSON(b, n.vals[k], inner)
			if i < len(n.keys)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(indent + "}")
	case kindArray:
		if len(n.items) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for i, item := range n.items {
			b.WriteString(inner)
			writeJSON(b, item, inner)
			if i < len(n.items)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(indent + "]")
	case kindString:
		writeJSONString(b, n.str)
	case kindNull:
		b.WriteString("null")
	default:
		b.WriteString(n.raw)
	}
}

func writeJSONString(b *bytes.Buffer, s string) {
	enc := json.NewEncoder(b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Drop the newline Encode appends.
	b.Truncate(b.Len() - 1)
}

// =============================================================================
// YAML
// =============================================================================

func decodeYAML(data []byte) (*node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 {
		return nil, fmt.Errorf("empty document")
	}
	return fromYAML(&doc, "$")
}

func fromYAML(y *yaml.Node, path string) (*node, error) {
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) != 1 {
			return nil, fmt.Errorf("expected a single document")
		}
		return fromYAML(y.Content[0], path)
	case yaml.AliasNode:
		return fromYAML(y.Alias, path)
	case yaml.MappingNode:
		obj := newObject()
		for i := 0; i+1 < len(y.Content); i += 2 {
			k, v := y.Content[i], y.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%s: line %d: keys must be strings", path, k.Line)
			}
			if _, dup := obj.vals[k.Value]; dup {
				return nil, fmt.Errorf("%s: line %d: duplicate key %q", path, k.Line, k.Value)
			}
			child, err := fromYAML(v, path+"."+k.Value)
			if err != nil {
				return nil, err
			}
			obj.set(k.Value, child)
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := &node{kind: kindArray, items: []*node{}}
		for i, item := range y.Content {
			child, err := fromYAML(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			arr.items = append(arr.items, child)
		}
		return arr, nil
	case yaml.ScalarNode:
		switch y.ShortTag() {
		case "!!str":
			return &node{kind: kindString, str: y.Value, raw: y.Value}, nil
		case "!!int", "!!float":
			return &node{kind: kindNumber, raw: y.Value}, nil
		case "!!bool":
			return &node{kind: kindBool, raw: strings.ToLower(y.Value)}, nil
		case "!!null":
			return &node{kind: kindNull, raw: "null"}, nil
		}
		return nil, fmt.Errorf("%s: line %d: unsupported value %q", path, y.Line, y.Value)
	}
	return nil, fmt.Errorf("%s: unsupported YAML node", path)
}

func encodeYAML(w io.Writer, n *node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toYAML(n)); err != nil {
		return err
	}
	return enc.Close()
}

func toYAML(n *node) *yaml.Node {
	switch n.kind {
	case kindObject:
		y := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range n.keys {
			y.Content = append(y.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				toYAML(n.vals[k]))
		}
		return y
	case kindArray:
		y := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if len(n.items) == 0 {
			y.Style = yaml.FlowStyle
		}
		for _, item := range n.items {
			y.Content = append(y.Content, toYAML(item))
		}
		return y
	case kindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.str}
	case kindNumber:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: n.raw}
	case kindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: n.raw}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

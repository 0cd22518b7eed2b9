package attr

import (
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FromAny converts decoded Go values into the attribute sum type. Map keys are
// sorted since Go maps carry no order.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null{}
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Number(t)
	case int64:
		return Number(t)
	case int32:
		return Number(t)
	case uint64:
		return Number(t)
	case float32:
		return Number(t)
	case float64:
		return Number(t)
	case []any:
		list := make(List, len(t))
		for i, item := range t {
			list[i] = FromAny(item)
		}
		return list
	case []string:
		list := make(List, len(t))
		for i, item := range t {
			list[i] = String(item)
		}
		return list
	case map[string]any:
		return NodeFromMap(t)
	default:
		return String(fmt.Sprint(t))
	}
}

func NodeFromMap(m map[string]any) *Node {
	node := NewNode()
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		node.Set(key, FromAny(m[key]))
	}
	return node
}

// ToAny converts a value back to plain Go data, suitable for JSON encoders
// that do not know about attr.
func ToAny(v Value) any {
	switch t := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(t)
	case Number:
		return float64(t)
	case Bool:
		return bool(t)
	case List:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = ToAny(item)
		}
		return out
	case *Node:
		out := make(map[string]any, t.Len())
		for _, key := range t.Keys() {
			value, _ := t.Get(key)
			out[key] = ToAny(value)
		}
		return out
	default:
		return nil
	}
}

// FromYAML converts a yaml.v3 node, keeping mapping keys in document order.
func FromYAML(n *yaml.Node) (Value, error) {
	if n == nil {
		return Null{}, nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null{}, nil
		}
		return FromYAML(n.Content[0])
	case yaml.AliasNode:
		return FromYAML(n.Alias)
	case yaml.MappingNode:
		node := NewNode()
		for i := 0; i+1 < len(n.Content); i += 2 {
			value, err := FromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			node.Set(n.Content[i].Value, value)
		}
		return node, nil
	case yaml.SequenceNode:
		list := make(List, 0, len(n.Content))
		for _, item := range n.Content {
			value, err := FromYAML(item)
			if err != nil {
				return nil, err
			}
			list = append(list, value)
		}
		return list, nil
	case yaml.ScalarNode:
		return scalarFromYAML(n)
	default:
		return nil, fmt.Errorf("unsupported yaml node kind %d at line %d", n.Kind, n.Line)
	}
}

func scalarFromYAML(n *yaml.Node) (Value, error) {
	switch n.Tag {
	case "!!null":
		return Null{}, nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			var decoded bool
			if derr := n.Decode(&decoded); derr != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, derr)
			}
			return Bool(decoded), nil
		}
		return Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Number(f), nil
	default:
		return String(n.Value), nil
	}
}

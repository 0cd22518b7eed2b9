// Package attr models a record's attribute tree as an explicit recursive sum
// type. Scanning, scoring and patching operate over these variants instead of
// untyped maps.
package attr

import "strings"

type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindNode
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindNode:
		return "node"
	default:
		return "null"
	}
}

// Value is one of String, Number, Bool, List, Null or *Node.
type Value interface {
	Kind() Kind
}

type (
	String string
	Number float64
	Bool   bool
	List   []Value
	Null   struct{}
)

func (String) Kind() Kind { return KindString }
func (Number) Kind() Kind { return KindNumber }
func (Bool) Kind() Kind   { return KindBool }
func (List) Kind() Kind   { return KindList }
func (Null) Kind() Kind   { return KindNull }

// Node is a string-keyed mapping that remembers insertion order. Order matters
// because candidate discovery must be repeatable for the same tree.
type Node struct {
	keys []string
	vals map[string]Value
}

func NewNode() *Node {
	return &Node{vals: make(map[string]Value)}
}

func (n *Node) Kind() Kind { return KindNode }

func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.keys)
}

func (n *Node) Keys() []string {
	if n == nil {
		return nil
	}
	keys := make([]string, len(n.keys))
	copy(keys, n.keys)
	return keys
}

func (n *Node) Get(key string) (Value, bool) {
	if n == nil || n.vals == nil {
		return nil, false
	}
	v, ok := n.vals[key]
	return v, ok
}

func (n *Node) Set(key string, v Value) {
	if n.vals == nil {
		n.vals = make(map[string]Value)
	}
	if _, exists := n.vals[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.vals[key] = v
}

func (n *Node) Delete(key string) {
	if n == nil || n.vals == nil {
		return
	}
	if _, exists := n.vals[key]; !exists {
		return
	}
	delete(n.vals, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
}

// Clone returns a deep copy. A nil node clones to an empty node.
func (n *Node) Clone() *Node {
	out := NewNode()
	if n == nil {
		return out
	}
	for _, key := range n.keys {
		out.Set(key, cloneValue(n.vals[key]))
	}
	return out
}

func cloneValue(v Value) Value {
	switch t := v.(type) {
	case *Node:
		return t.Clone()
	case List:
		out := make(List, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Text reports whether v is a string with non-whitespace content.
func Text(v Value) (string, bool) {
	s, ok := v.(String)
	if !ok || strings.TrimSpace(string(s)) == "" {
		return "", false
	}
	return string(s), true
}

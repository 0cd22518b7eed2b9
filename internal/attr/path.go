package attr

import "strings"

const Separator = "."

func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// Join concatenates non-empty segments with the path separator.
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, Separator)
}

// Parent returns the path without its last segment, and that segment.
func Parent(path string) (string, string) {
	i := strings.LastIndex(path, Separator)
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

func Lookup(root *Node, path string) (Value, bool) {
	segments := Split(path)
	if len(segments) == 0 || root == nil {
		return nil, false
	}
	var current Value = root
	for _, seg := range segments {
		node, ok := current.(*Node)
		if !ok || node == nil {
			return nil, false
		}
		next, ok := node.Get(seg)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// StringAt returns the string stored at path. Non-string leaves report false.
func StringAt(root *Node, path string) (string, bool) {
	v, ok := Lookup(root, path)
	if !ok {
		return "", false
	}
	s, ok := v.(String)
	return string(s), ok
}

// SetPath writes v at path inside patch, creating intermediate nodes and
// replacing any non-node value that sits on the way.
func SetPath(patch *Node, path string, v Value) {
	segments := Split(path)
	if len(segments) == 0 || patch == nil {
		return
	}
	current := patch
	for _, seg := range segments[:len(segments)-1] {
		next, ok := current.Get(seg)
		child, isNode := next.(*Node)
		if !ok || !isNode || child == nil {
			child = NewNode()
			current.Set(seg, child)
		}
		current = child
	}
	current.Set(segments[len(segments)-1], v)
}

// Merge applies patch onto dst: nested nodes merge key by key, every other
// value replaces what was there.
func Merge(dst, patch *Node) {
	if dst == nil || patch == nil {
		return
	}
	for _, key := range patch.keys {
		value := patch.vals[key]
		if incoming, ok := value.(*Node); ok {
			if existing, ok := dst.vals[key].(*Node); ok && existing != nil {
				Merge(existing, incoming)
				continue
			}
			dst.Set(key, incoming.Clone())
			continue
		}
		dst.Set(key, cloneValue(value))
	}
}

// Filter returns a copy of patch holding only the leaves whose full path is
// accepted by allow. Nodes left empty are dropped.
func Filter(patch *Node, allow func(path string) bool) *Node {
	return filterNode(patch, "", allow)
}

func filterNode(n *Node, prefix string, allow func(path string) bool) *Node {
	out := NewNode()
	if n == nil {
		return out
	}
	for _, key := range n.keys {
		path := Join(prefix, key)
		value := n.vals[key]
		if child, ok := value.(*Node); ok {
			kept := filterNode(child, path, allow)
			if kept.Len() > 0 {
				out.Set(key, kept)
			}
			continue
		}
		if allow(path) {
			out.Set(key, cloneValue(value))
		}
	}
	return out
}

// Leaves lists the full path of every non-node value under n in document order.
func Leaves(n *Node) []string {
	var paths []string
	var walk func(node *Node, prefix string)
	walk = func(node *Node, prefix string) {
		for _, key := range node.Keys() {
			path := Join(prefix, key)
			value, _ := node.Get(key)
			if child, ok := value.(*Node); ok {
				walk(child, path)
				continue
			}
			paths = append(paths, path)
		}
	}
	if n != nil {
		walk(n, "")
	}
	return paths
}

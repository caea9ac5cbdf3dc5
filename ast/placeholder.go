package ast

import "strings"

// IsTemplatePlaceholder reports whether n is a variable-substitution
// placeholder rather than real content. Two shapes are recognized: a scalar
// of the form `((name))` and the `{{name}}` moustache form, which YAML parses
// as a flow mapping nested in a flow mapping.
func IsTemplatePlaceholder(n *Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindScalar:
		v := strings.TrimSpace(n.Value)
		return len(v) > 4 && strings.HasPrefix(v, "((") && strings.HasSuffix(v, "))")
	case KindMapping:
		_, ok := ScalarText(debrace(debrace(n)))
		return ok
	}
	return false
}

// debrace unwraps a flow mapping with a single entry whose value is empty.
func debrace(n *Node) *Node {
	if n == nil || n.Kind != KindMapping || !n.Flow || len(n.Entries) != 1 {
		return nil
	}
	e := n.Entries[0]
	if v, ok := ScalarText(e.Value); ok && v == "" {
		return e.Key
	}
	return nil
}

// Package ast builds the document tree the schema reconciler walks. Trees are
// composed with gopkg.in/yaml.v3 and annotated with byte offsets into the
// source document.
package ast

import (
	"github.com/speakeasy-api/yschema/document"
)

// Kind is the structural kind of a node.
type Kind int

const (
	// KindOther is any node the reconciler does not inspect.
	KindOther Kind = iota
	KindScalar
	KindMapping
	KindSequence
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "Scalar"
	case KindMapping:
		return "Mapping"
	case KindSequence:
		return "Sequence"
	case KindAlias:
		return "Alias"
	default:
		return "Other"
	}
}

// Node is one node of a document tree. Nodes are immutable after Parse
// returns.
type Node struct {
	Kind Kind

	// Start and End delimit the node text as a half-open byte range.
	Start int
	End   int

	// Line and Column are the 1-based position reported by the YAML parser.
	Line   int
	Column int

	// Value is the text of a scalar, or the anchor name referenced by an alias.
	Value string
	Tag   string
	// Anchor is the name of the anchor defined on this node, if any.
	Anchor string
	// Flow is set for flow-style collections such as `{a: 1}` or `[1, 2]`.
	Flow bool

	// Entries holds the literal entries of a mapping in document order.
	Entries []*Entry
	// Items holds the elements of a sequence.
	Items []*Node
	// Target is the node an alias refers to.
	Target *Node

	flat      []*Entry
	flattened bool
}

// Entry is a key/value pair of a mapping.
type Entry struct {
	Key   *Node
	Value *Node

	// Aliased marks entries that were not typed literally at this location:
	// entries pulled in through a merge key, or whose key is an alias.
	Aliased bool
}

// Region returns the node's text range.
func (n *Node) Region() document.Region {
	return document.Region{Start: n.Start, End: n.End}
}

// Resolve follows aliases to the node they refer to.
func (n *Node) Resolve() *Node {
	seen := 0
	for n != nil && n.Kind == KindAlias && n.Target != nil && seen < 64 {
		n = n.Target
		seen++
	}
	return n
}

// ScalarText returns the text of a scalar node, looking through aliases. The
// second result is false for non-scalar nodes.
func ScalarText(n *Node) (string, bool) {
	n = n.Resolve()
	if n == nil || n.Kind != KindScalar {
		return "", false
	}
	return n.Value, true
}

// IsMergeKey reports whether n is the `<<` merge key.
func IsMergeKey(n *Node) bool {
	return n != nil && n.Kind == KindScalar && (n.Tag == "!!merge" || (n.Value == "<<" && n.Tag == ""))
}

// FlatEntries returns the mapping's entries with merge keys expanded. Keys
// written locally take precedence over merged keys, and earlier merge sources
// take precedence over later ones. Merged entries are marked Aliased.
func (n *Node) FlatEntries() []*Entry {
	if n.flattened {
		return n.flat
	}
	return n.Entries
}

// ScalarKeys returns the set of scalar key texts of the flattened entries.
func (n *Node) ScalarKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(n.FlatEntries()))
	for _, e := range n.FlatEntries() {
		if k, ok := ScalarText(e.Key); ok {
			keys[k] = struct{}{}
		}
	}
	return keys
}

// Get returns the value of the first flattened entry with the given scalar key.
func (n *Node) Get(key string) (*Node, bool) {
	for _, e := range n.FlatEntries() {
		if k, ok := ScalarText(e.Key); ok && k == key {
			return e.Value, true
		}
	}
	return nil, false
}

func flatten(n *Node, visiting map[*Node]bool) []*Entry {
	if n.flattened {
		return n.flat
	}
	if visiting[n] {
		return nil
	}
	visiting[n] = true
	defer delete(visiting, n)

	seen := make(map[string]bool, len(n.Entries))
	var out, merges []*Entry
	for _, e := range n.Entries {
		if IsMergeKey(e.Key) {
			merges = append(merges, e)
			continue
		}
		if k, ok := ScalarText(e.Key); ok {
			seen[k] = true
		}
		out = append(out, &Entry{Key: e.Key, Value: e.Value, Aliased: e.Key.Kind == KindAlias})
	}
	for _, m := range merges {
		for _, src := range mergeSources(m.Value) {
			for _, e := range flatten(src, visiting) {
				if k, ok := ScalarText(e.Key); ok {
					if seen[k] {
						continue
					}
					seen[k] = true
				}
				out = append(out, &Entry{Key: e.Key, Value: e.Value, Aliased: true})
			}
		}
	}
	return out
}

func mergeSources(v *Node) []*Node {
	v = v.Resolve()
	if v == nil {
		return nil
	}
	switch v.Kind {
	case KindMapping:
		return []*Node{v}
	case KindSequence:
		var sources []*Node
		for _, item := range v.Items {
			if m := item.Resolve(); m != nil && m.Kind == KindMapping {
				sources = append(sources, m)
			}
		}
		return sources
	default:
		return nil
	}
}

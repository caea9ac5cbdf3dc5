package yschema

import (
	"fmt"
	"strings"

	"github.com/speakeasy-api/yschema/ast"
	"github.com/speakeasy-api/yschema/document"
	"github.com/speakeasy-api/yschema/problem"
)

// Constraint is an extra validation rule attached to a type. Constraints run
// after the whole document has been walked, so they may depend on
// information collected anywhere in it.
type Constraint interface {
	Verify(dc DynamicContext, parent, node *ast.Node, t YType, sink problem.Sink)
}

// ConstraintFunc adapts a function to a Constraint.
type ConstraintFunc func(dc DynamicContext, parent, node *ast.Node, t YType, sink problem.Sink)

func (f ConstraintFunc) Verify(dc DynamicContext, parent, node *ast.Node, t YType, sink problem.Sink) {
	f(dc, parent, node, t, sink)
}

// AnchorRegion returns the region a problem about node as a whole should be
// reported on: the key the node is the value of, or else the first line of
// the node.
func AnchorRegion(doc *document.Document, parent, node *ast.Node) document.Region {
	if parent != nil && parent.Kind == ast.KindMapping {
		for _, e := range parent.Entries {
			if e.Value == node {
				return e.Key.Region()
			}
		}
	}
	if doc == nil {
		return node.Region()
	}
	end := min(node.End, doc.LineEnd(doc.LineOf(node.Start)))
	return doc.TrimEnd(document.Region{Start: node.Start, End: max(end, node.Start)})
}

// RequireOneOf requires that exactly one of props is defined.
func RequireOneOf(props ...string) Constraint {
	return ConstraintFunc(func(dc DynamicContext, parent, node *ast.Node, t YType, sink problem.Sink) {
		requireAtLeastOne(dc, parent, node, t, sink, props)
		mutuallyExclusive(node, t, sink, props)
	})
}

// RequireAtLeastOneOf requires that one or more of props is defined.
func RequireAtLeastOneOf(props ...string) Constraint {
	return ConstraintFunc(func(dc DynamicContext, parent, node *ast.Node, t YType, sink problem.Sink) {
		requireAtLeastOne(dc, parent, node, t, sink, props)
	})
}

// MutuallyExclusive reports every occurrence of props when more than one of
// them is defined.
func MutuallyExclusive(props ...string) Constraint {
	return ConstraintFunc(func(_ DynamicContext, _, node *ast.Node, t YType, sink problem.Sink) {
		mutuallyExclusive(node, t, sink, props)
	})
}

func requireAtLeastOne(dc DynamicContext, parent, node *ast.Node, t YType, sink problem.Sink, props []string) {
	node = node.Resolve()
	if node == nil || node.Kind != ast.KindMapping {
		return
	}
	defined := node.ScalarKeys()
	for _, p := range props {
		if _, ok := defined[p]; ok {
			return
		}
	}
	msg := fmt.Sprintf("One of [%s] is required for '%s'", strings.Join(props, ", "), t)
	sink.Accept(problem.New(problem.MissingProperty, msg, AnchorRegion(dc.Document(), parent, node)))
}

func mutuallyExclusive(node *ast.Node, t YType, sink problem.Sink, props []string) {
	node = node.Resolve()
	if node == nil || node.Kind != ast.KindMapping {
		return
	}
	wanted := make(map[string]bool, len(props))
	for _, p := range props {
		wanted[p] = true
	}
	var keys []*ast.Node
	for _, e := range node.FlatEntries() {
		if k, ok := ast.ScalarText(e.Key); ok && wanted[k] {
			keys = append(keys, e.Key)
		}
	}
	if len(keys) < 2 {
		return
	}
	msg := fmt.Sprintf("Only one of [%s] should be defined for '%s'", strings.Join(props, ", "), t)
	for _, k := range keys {
		sink.Accept(problem.New(problem.PropertyConstraint, msg, k.Region()))
	}
}

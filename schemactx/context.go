// Package schemactx derives the dynamic schema context of a document node
// from the parsed tree.
package schemactx

import (
	"sync"

	"github.com/speakeasy-api/yschema/ast"
	"github.com/speakeasy-api/yschema/document"
	"github.com/speakeasy-api/yschema/yamlpath"
)

// Context is the view of one node used to narrow and validate its type. It
// is immutable; the set of defined properties is computed on first use.
type Context struct {
	file *ast.File
	path yamlpath.Path
	node *ast.Node

	once    sync.Once
	defined map[string]struct{}
}

// New creates the context for node, found at path in file.
func New(file *ast.File, path yamlpath.Path, node *ast.Node) *Context {
	return &Context{file: file, path: path, node: node}
}

// Path returns the location of the node.
func (c *Context) Path() yamlpath.Path { return c.path }

// Node returns the node, with aliases resolved.
func (c *Context) Node() *ast.Node { return c.node.Resolve() }

// File returns the tree the node belongs to.
func (c *Context) File() *ast.File { return c.file }

// Document returns the text the tree was parsed from.
func (c *Context) Document() *document.Document {
	if c.file == nil {
		return nil
	}
	return c.file.Doc
}

// DefinedProperties returns the scalar keys of the node, including merged
// keys, when it is a mapping.
func (c *Context) DefinedProperties() map[string]struct{} {
	c.once.Do(func() {
		n := c.Node()
		if n != nil && n.Kind == ast.KindMapping && !ast.IsTemplatePlaceholder(n) {
			c.defined = n.ScalarKeys()
		} else {
			c.defined = map[string]struct{}{}
		}
	})
	return c.defined
}

// IsAtomic reports whether the node is a scalar. A `{{var}}` placeholder
// counts as a scalar since it stands for one.
func (c *Context) IsAtomic() bool {
	n := c.Node()
	if n == nil {
		return false
	}
	return n.Kind == ast.KindScalar || (n.Kind == ast.KindMapping && ast.IsTemplatePlaceholder(n))
}

// IsMap reports whether the node is a mapping.
func (c *Context) IsMap() bool {
	n := c.Node()
	return n != nil && n.Kind == ast.KindMapping && !ast.IsTemplatePlaceholder(n)
}

// IsSequence reports whether the node is a sequence.
func (c *Context) IsSequence() bool {
	n := c.Node()
	return n != nil && n.Kind == ast.KindSequence
}

// Sibling returns the node reached by following rel from the parent of this
// node, for narrowing functions that depend on neighbouring values.
func (c *Context) Sibling(rel yamlpath.Path) (*ast.Node, bool) {
	if c.file == nil || c.path.IsEmpty() {
		return nil, false
	}
	return c.file.Find(c.path.DropLast(1).Then(rel))
}

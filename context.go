package yschema

import (
	"github.com/speakeasy-api/yschema/ast"
	"github.com/speakeasy-api/yschema/document"
	"github.com/speakeasy-api/yschema/yamlpath"
)

// DynamicContext describes the document node a type is being narrowed or
// validated against. Implementations are immutable.
type DynamicContext interface {
	// Path locates the node. The first segment is the document index.
	Path() yamlpath.Path
	// DefinedProperties returns the scalar keys present when the node is a
	// mapping, and an empty set otherwise. Callers must not modify it.
	DefinedProperties() map[string]struct{}

	IsAtomic() bool
	IsMap() bool
	IsSequence() bool

	Document() *document.Document
	Node() *ast.Node
}

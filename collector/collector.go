// Package collector records the type each node of a document settled on
// during reconciliation, for outline, hover and navigation features.
package collector

import (
	"fmt"
	"sync"

	"github.com/speakeasy-api/yschema"
	"github.com/speakeasy-api/yschema/ast"
	"github.com/speakeasy-api/yschema/document"
	"github.com/speakeasy-api/yschema/yamlpath"
)

// TypeCollector observes the types assigned to nodes during a walk. A
// session is bracketed by BeginCollecting and EndCollecting; a collector
// handles one session at a time.
type TypeCollector interface {
	BeginCollecting(file *ast.File)
	// Wants reports whether Accept should be called for nodes of type t.
	Wants(t yschema.YType) bool
	Accept(node *ast.Node, t yschema.YType, path yamlpath.Path)
	EndCollecting(file *ast.File)
}

// Entry is one recorded association.
type Entry struct {
	Node *ast.Node
	Type yschema.YType
	Path yamlpath.Path
}

// Symbol is a named node of an interesting type, for outline views.
type Symbol struct {
	Name   string
	Type   yschema.YType
	Region document.Region
	Path   yamlpath.Path
}

type fileIndex struct {
	entries []Entry
	byNode  map[*ast.Node]int
}

// TypeCache is a TypeCollector that keeps the last result per document URI.
// Queries may run concurrently with each other and with a collection
// session for another document.
type TypeCache struct {
	interesting map[yschema.YType]bool

	mu      sync.RWMutex
	files   map[string]*fileIndex
	current *ast.File
	pending *fileIndex
}

var _ TypeCollector = (*TypeCache)(nil)

// NewTypeCache creates a cache recording nodes of the interesting types, or
// of every type when none are given.
func NewTypeCache(interesting ...yschema.YType) *TypeCache {
	c := &TypeCache{files: make(map[string]*fileIndex)}
	if len(interesting) > 0 {
		c.interesting = make(map[yschema.YType]bool, len(interesting))
		for _, t := range interesting {
			c.interesting[t] = true
		}
	}
	return c
}

// Wants reports whether t is one of the interesting types.
func (c *TypeCache) Wants(t yschema.YType) bool {
	return t != nil && (c.interesting == nil || c.interesting[t])
}

// BeginCollecting starts a session for file. It panics if a session is
// already in progress.
func (c *TypeCache) BeginCollecting(file *ast.File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		panic(fmt.Sprintf("collector: session for %s still in progress, cannot begin %s",
			c.current.Doc.URI(), file.Doc.URI()))
	}
	c.current = file
	c.pending = &fileIndex{byNode: make(map[*ast.Node]int)}
}

func (c *TypeCache) Accept(node *ast.Node, t yschema.YType, path yamlpath.Path) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		panic("collector: Accept called outside a session")
	}
	if !c.Wants(t) {
		return
	}
	if i, ok := c.pending.byNode[node]; ok {
		c.pending.entries[i] = Entry{Node: node, Type: t, Path: path}
		return
	}
	c.pending.byNode[node] = len(c.pending.entries)
	c.pending.entries = append(c.pending.entries, Entry{Node: node, Type: t, Path: path})
}

// EndCollecting publishes the session's results.
func (c *TypeCache) EndCollecting(file *ast.File) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != file {
		panic("collector: EndCollecting does not match BeginCollecting")
	}
	c.files[file.Doc.URI()] = c.pending
	c.current = nil
	c.pending = nil
}

// Forget drops everything recorded for uri.
func (c *TypeCache) Forget(uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, uri)
}

// Entries returns every recorded association for uri in walk order.
func (c *TypeCache) Entries(uri string) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx := c.files[uri]
	if idx == nil {
		return nil
	}
	return append([]Entry(nil), idx.entries...)
}

// NodesOfType returns the nodes of uri recorded with type t.
func (c *TypeCache) NodesOfType(uri string, t yschema.YType) []*ast.Node {
	var nodes []*ast.Node
	for _, e := range c.Entries(uri) {
		if e.Type == t {
			nodes = append(nodes, e.Node)
		}
	}
	return nodes
}

// TypeOf returns the type recorded for node.
func (c *TypeCache) TypeOf(uri string, node *ast.Node) (yschema.YType, bool) {
	e, ok := c.lookup(uri, node)
	return e.Type, ok
}

// PathOf returns the path at which node was visited.
func (c *TypeCache) PathOf(uri string, node *ast.Node) (yamlpath.Path, bool) {
	e, ok := c.lookup(uri, node)
	return e.Path, ok
}

func (c *TypeCache) lookup(uri string, node *ast.Node) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx := c.files[uri]
	if idx == nil {
		return Entry{}, false
	}
	i, ok := idx.byNode[node]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[i], true
}

// Symbols lists the recorded nodes of uri as named symbols. A scalar is
// named by its text, a mapping by its "name" property, and anything else by
// the key it is stored under.
func (c *TypeCache) Symbols(uri string) []Symbol {
	var symbols []Symbol
	for _, e := range c.Entries(uri) {
		name := symbolName(e)
		if name == "" {
			continue
		}
		symbols = append(symbols, Symbol{Name: name, Type: e.Type, Region: e.Node.Region(), Path: e.Path})
	}
	return symbols
}

func symbolName(e Entry) string {
	if s, ok := ast.ScalarText(e.Node); ok {
		return s
	}
	if n := e.Node.Resolve(); n != nil && n.Kind == ast.KindMapping {
		if v, ok := n.Get("name"); ok {
			if s, ok := ast.ScalarText(v); ok {
				return s
			}
		}
	}
	return e.Path.BeanPropertyName()
}

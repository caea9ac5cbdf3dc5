package schemactx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakeasy-api/yschema"
	"github.com/speakeasy-api/yschema/ast"
	"github.com/speakeasy-api/yschema/document"
	"github.com/speakeasy-api/yschema/yamlpath"
)

var _ yschema.DynamicContext = (*Context)(nil)

func parse(t *testing.T, text string) *ast.File {
	t.Helper()
	f, err := ast.Parse(document.New("mem://ctx.yml", 1, text))
	require.NoError(t, err)
	return f
}

func TestShapes(t *testing.T) {
	f := parse(t, "map:\n  a: 1\nseq: [1]\nscalar: x\nvar: {{name}}\n")
	root := f.Roots[0]
	at := func(key string) *Context {
		n, ok := root.Get(key)
		require.True(t, ok, key)
		return New(f, yamlpath.New(yamlpath.ValueAt(0), yamlpath.ValueAtKey(key)), n)
	}

	assert.True(t, at("map").IsMap())
	assert.True(t, at("seq").IsSequence())
	assert.True(t, at("scalar").IsAtomic())
	assert.True(t, at("var").IsAtomic())
	assert.False(t, at("var").IsMap())
	assert.Empty(t, at("var").DefinedProperties())
	assert.Equal(t, map[string]struct{}{"a": {}}, at("map").DefinedProperties())
	assert.Empty(t, at("scalar").DefinedProperties())
}

func TestDefinedPropertiesIncludeMergedKeys(t *testing.T) {
	f := parse(t, "base: &b\n  x: 1\nthing:\n  <<: *b\n  y: 2\n")
	n, _ := f.Roots[0].Get("thing")
	c := New(f, yamlpath.New(yamlpath.ValueAt(0), yamlpath.ValueAtKey("thing")), n)
	assert.Equal(t, map[string]struct{}{"x": {}, "y": {}}, c.DefinedProperties())
}

func TestSibling(t *testing.T) {
	f := parse(t, "kind: git\nsource:\n  uri: x\n")
	n, _ := f.Roots[0].Get("source")
	c := New(f, yamlpath.New(yamlpath.ValueAt(0), yamlpath.ValueAtKey("source")), n)
	kind, ok := c.Sibling(yamlpath.New(yamlpath.ValueAtKey("kind")))
	require.True(t, ok)
	assert.Equal(t, "git", kind.Value)
}

package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakeasy-api/yschema"
	"github.com/speakeasy-api/yschema/ast"
	"github.com/speakeasy-api/yschema/document"
	"github.com/speakeasy-api/yschema/yamlpath"
)

func parse(t *testing.T, uri, text string) *ast.File {
	t.Helper()
	f, err := ast.Parse(document.New(uri, 1, text))
	require.NoError(t, err)
	return f
}

func TestTypeCache(t *testing.T) {
	resource := yschema.Bean("Resource").Prop("name", yschema.String).Build()
	f := parse(t, "file:///p.yml", "resources:\n- name: git\n- name: image\nother: x\n")
	resources, ok := f.Find(yamlpath.New(yamlpath.ValueAt(0), yamlpath.ValueAtKey("resources")))
	require.True(t, ok)
	other, ok := f.Find(yamlpath.New(yamlpath.ValueAt(0), yamlpath.ValueAtKey("other")))
	require.True(t, ok)

	c := NewTypeCache(resource)
	assert.True(t, c.Wants(resource))
	assert.False(t, c.Wants(yschema.String))

	c.BeginCollecting(f)
	for i, item := range resources.Items {
		c.Accept(item, resource, yamlpath.New(yamlpath.ValueAt(0), yamlpath.ValueAtKey("resources"), yamlpath.ValueAt(i)))
	}
	c.Accept(other, yschema.String, yamlpath.New(yamlpath.ValueAt(0), yamlpath.ValueAtKey("other")))

	// nothing is visible until the session ends
	assert.Empty(t, c.Entries("file:///p.yml"))
	c.EndCollecting(f)

	assert.Len(t, c.Entries("file:///p.yml"), 2)
	assert.Equal(t, resources.Items, c.NodesOfType("file:///p.yml", resource))

	typ, ok := c.TypeOf("file:///p.yml", resources.Items[1])
	require.True(t, ok)
	assert.Equal(t, resource, typ)
	_, ok = c.TypeOf("file:///p.yml", other)
	assert.False(t, ok)

	path, ok := c.PathOf("file:///p.yml", resources.Items[0])
	require.True(t, ok)
	assert.Equal(t, "[0].resources[0]", path.ToPropString())

	var names []string
	for _, s := range c.Symbols("file:///p.yml") {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"git", "image"}, names)

	c.Forget("file:///p.yml")
	assert.Empty(t, c.Entries("file:///p.yml"))
}

func TestTypeCacheReplacesPreviousRun(t *testing.T) {
	c := NewTypeCache()
	f := parse(t, "file:///a.yml", "a: 1\n")
	root := f.Roots[0]

	c.BeginCollecting(f)
	c.Accept(root, yschema.Object, yamlpath.New(yamlpath.ValueAt(0)))
	c.Accept(root, yschema.String, yamlpath.New(yamlpath.ValueAt(0)))
	c.EndCollecting(f)
	entries := c.Entries("file:///a.yml")
	require.Len(t, entries, 1)
	assert.Equal(t, yschema.String, entries[0].Type)

	c.BeginCollecting(f)
	c.EndCollecting(f)
	assert.Empty(t, c.Entries("file:///a.yml"))
}

func TestTypeCacheSessionMisuse(t *testing.T) {
	c := NewTypeCache()
	a := parse(t, "file:///a.yml", "a: 1\n")
	b := parse(t, "file:///b.yml", "b: 1\n")

	assert.Panics(t, func() { c.Accept(a.Roots[0], yschema.String, yamlpath.Empty) })

	c.BeginCollecting(a)
	assert.Panics(t, func() { c.BeginCollecting(b) })
	assert.Panics(t, func() { c.EndCollecting(b) })
	c.EndCollecting(a)
}

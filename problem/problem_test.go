package problem

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakeasy-api/yschema/document"
)

func TestSeverity(t *testing.T) {
	for _, s := range []Severity{SeverityIgnore, SeverityInfo, SeverityWarning, SeverityError} {
		got, err := ParseSeverity(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseSeverity("fatal")
	assert.Error(t, err)
}

func TestProblemJSON(t *testing.T) {
	p := New(MissingProperty, "Property 'name' is required for 'Job'", document.Region{Start: 3, End: 7}).
		WithFix(MissingPropertiesFix(MissingPropertiesData{
			URI:   "file:///a.yml",
			Props: []string{"name"},
		}))
	assert.Equal(t, SeverityError, p.Severity)

	out, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out, &got))
	want := map[string]any{
		"type":     MissingProperty.Code,
		"message":  "Property 'name' is required for 'Job'",
		"region":   map[string]any{"start": float64(3), "end": float64(7)},
		"severity": "error",
		"fix": map[string]any{
			"kind":  "missing-properties",
			"title": "Add missing property",
			"data": map[string]any{
				"uri":          "file:///a.yml",
				"path":         nil,
				"props":        []any{"name"},
				"snippet":      "",
				"cursorOffset": float64(0),
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("json mismatch (-want +got):\n%s", diff)
	}
}

func TestHasErrors(t *testing.T) {
	warn := New(DeprecatedProperty, "old", document.Region{})
	assert.False(t, HasErrors([]Problem{warn}))
	assert.True(t, HasErrors([]Problem{warn, New(ValueParse, "bad", document.Region{})}))
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	assert.Panics(t, func() { c.Accept(New(Syntax, "x", document.Region{})) })

	c.BeginCollecting()
	assert.Panics(t, func() { c.BeginCollecting() })
	c.Accept(New(Syntax, "a", document.Region{}))
	c.Checkpoint()
	c.Accept(New(Syntax, "b", document.Region{}))
	c.EndCollecting()

	require.True(t, c.Checkpointed())
	assert.Len(t, c.Problems(), 2)
	assert.Equal(t, "a", c.Fast()[0].Message)
	assert.Equal(t, "b", c.Slow()[0].Message)

	c.BeginCollecting()
	c.EndCollecting()
	assert.Empty(t, c.Problems())
	assert.False(t, c.Checkpointed())
	assert.Equal(t, 2, c.Sessions())
}

func TestSinkFuncs(t *testing.T) {
	var events []string
	s := SinkFuncs{
		OnBegin:  func() { events = append(events, "begin") },
		OnAccept: func(p Problem) { events = append(events, p.Message) },
		OnEnd:    func() { events = append(events, "end") },
	}
	s.BeginCollecting()
	s.Accept(New(Syntax, "x", document.Region{}))
	s.Checkpoint()
	s.EndCollecting()
	assert.Equal(t, []string{"begin", "x", "end"}, events)
}

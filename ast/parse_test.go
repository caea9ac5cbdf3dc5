package ast

import (
	"errors"
	"testing"

	"github.com/speakeasy-api/yschema/document"
	"github.com/speakeasy-api/yschema/yamlpath"
)

func mustParse(t *testing.T, text string) *File {
	t.Helper()
	f, err := Parse(document.New("mem://test.yml", 1, text))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return f
}

func textOf(f *File, n *Node) string {
	return f.Doc.Slice(n.Start, n.End)
}

func TestParseRegions(t *testing.T) {
	text := "name: foo\n" +
		"quoted: \"a \\\" b\"\n" +
		"single: 'it''s'\n" +
		"flow: {a: 1, b: [x, y]}\n" +
		"block: |\n" +
		"  line one\n" +
		"  line two\n" +
		"anchored: &val hello\n" +
		"ref: *val\n" +
		"empty:\n"
	f := mustParse(t, text)
	if len(f.Roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(f.Roots))
	}
	root := f.Roots[0]
	if root.Kind != KindMapping {
		t.Fatalf("root kind = %v", root.Kind)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"name", "foo"},
		{"quoted", `"a \" b"`},
		{"single", `'it''s'`},
		{"flow", "{a: 1, b: [x, y]}"},
		{"block", "|\n  line one\n  line two"},
		{"anchored", "hello"},
		{"ref", "*val"},
		{"empty", ""},
	}
	for _, tt := range tests {
		v, ok := root.Get(tt.key)
		if !ok {
			t.Errorf("missing key %q", tt.key)
			continue
		}
		if got := textOf(f, v); got != tt.want {
			t.Errorf("%s: region text = %q, want %q", tt.key, got, tt.want)
		}
	}

	ref, _ := root.Get("ref")
	if s, ok := ScalarText(ref); !ok || s != "hello" {
		t.Errorf("alias should resolve to hello, got %q", s)
	}
}

func TestParseMultipleDocuments(t *testing.T) {
	f := mustParse(t, "a: 1\n---\nb: 2\n---\n- x\n")
	if len(f.Roots) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(f.Roots))
	}
	if f.Roots[2].Kind != KindSequence {
		t.Errorf("third root kind = %v", f.Roots[2].Kind)
	}
}

func TestMergeKeys(t *testing.T) {
	f := mustParse(t, "base: &base\n  a: 1\n  b: 2\nchild:\n  <<: *base\n  b: 3\n  c: 4\n")
	child, _ := f.Roots[0].Get("child")

	var keys []string
	aliased := map[string]bool{}
	for _, e := range child.FlatEntries() {
		k, _ := ScalarText(e.Key)
		keys = append(keys, k)
		aliased[k] = e.Aliased
	}
	want := []string{"b", "c", "a"}
	if len(keys) != len(want) {
		t.Fatalf("flat keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("flat keys = %v, want %v", keys, want)
		}
	}
	if !aliased["a"] || aliased["b"] || aliased["c"] {
		t.Errorf("aliased flags = %v", aliased)
	}
	b, _ := child.Get("b")
	if b.Value != "3" {
		t.Errorf("local key should override merged key, got %q", b.Value)
	}
	if len(child.Entries) != 3 {
		t.Errorf("literal entries should keep the merge key, got %d", len(child.Entries))
	}
}

func TestMergeOfEmptyMapping(t *testing.T) {
	for _, text := range []string{"k:\n  <<: {}\n", "base: &x {}\nk:\n  <<: *x\n"} {
		f := mustParse(t, text)
		k, _ := f.Roots[0].Get("k")
		if got := k.FlatEntries(); len(got) != 0 {
			t.Errorf("%q: flat entries = %d, want 0", text, len(got))
		}
		if _, ok := k.ScalarKeys()["<<"]; ok {
			t.Errorf("%q: merge key leaked into scalar keys", text)
		}
	}
}

func TestSyntaxError(t *testing.T) {
	_, err := Parse(document.New("mem://bad.yml", 1, "a: 1\nb: [1, 2\n"))
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
	if se.Msg == "" {
		t.Error("syntax error should carry a message")
	}
}

func TestFind(t *testing.T) {
	f := mustParse(t, "jobs:\n- name: build\n  plan: [a]\n")
	n, ok := f.Find(yamlpath.New(yamlpath.ValueAt(0), yamlpath.ValueAtKey("jobs"), yamlpath.ValueAt(0), yamlpath.ValueAtKey("name")))
	if !ok || n.Value != "build" {
		t.Fatalf("Find = %v, %v", n, ok)
	}
	k, ok := f.Find(yamlpath.New(yamlpath.ValueAt(0), yamlpath.ValueAtKey("jobs"), yamlpath.ValueAt(0), yamlpath.KeyAt("plan")))
	if !ok || k.Value != "plan" {
		t.Errorf("Find key = %v, %v", k, ok)
	}
	if _, ok := f.Find(yamlpath.New(yamlpath.ValueAt(1))); ok {
		t.Error("out of range document should not be found")
	}
}

func TestTemplatePlaceholders(t *testing.T) {
	f := mustParse(t, "a: ((var))\nb: {{var}}\nc: {x: 1}\nd: plain\n")
	root := f.Roots[0]
	for key, want := range map[string]bool{"a": true, "b": true, "c": false, "d": false} {
		v, _ := root.Get(key)
		if got := IsTemplatePlaceholder(v); got != want {
			t.Errorf("IsTemplatePlaceholder(%s) = %v, want %v", key, got, want)
		}
	}
}

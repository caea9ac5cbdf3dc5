package ast

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/speakeasy-api/yschema/document"
	"github.com/speakeasy-api/yschema/yamlpath"
	"gopkg.in/yaml.v3"
)

// File is the parsed form of a document: one root node per YAML document in
// the stream.
type File struct {
	Doc   *document.Document
	Roots []*Node
}

// SyntaxError reports input that could not be composed into a tree.
type SyntaxError struct {
	Msg    string
	Line   int // zero-based; -1 when the parser did not report one
	Region document.Region
}

func (e *SyntaxError) Error() string {
	if e.Line >= 0 {
		return fmt.Sprintf("line %d: %s", e.Line+1, e.Msg)
	}
	return e.Msg
}

var (
	yamlErrLineRe   = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)
	yamlErrAnchorRe = regexp.MustCompile(`unknown anchor '([^']*)' referenced`)
)

func newSyntaxError(doc *document.Document, err error) *SyntaxError {
	msg := err.Error()
	if m := yamlErrLineRe.FindStringSubmatch(msg); len(m) == 3 {
		line, _ := strconv.Atoi(m[1])
		line--
		return &SyntaxError{
			Msg:    m[2],
			Line:   line,
			Region: document.Region{Start: doc.LineStart(line), End: doc.LineEnd(line)},
		}
	}
	se := &SyntaxError{
		Msg:    strings.TrimPrefix(msg, "yaml: "),
		Line:   -1,
		Region: doc.Whole(),
	}
	if m := yamlErrAnchorRe.FindStringSubmatch(msg); len(m) == 2 {
		if i := strings.Index(doc.Text(), "*"+m[1]); i >= 0 {
			se.Line = doc.LineOf(i)
			se.Region = document.Region{Start: i, End: i + 1 + len(m[1])}
		}
	}
	return se
}

// Parse composes every YAML document in doc. A *SyntaxError is returned when
// the input is malformed.
func Parse(doc *document.Document) (*File, error) {
	dec := yaml.NewDecoder(strings.NewReader(doc.Text()))
	file := &File{Doc: doc}
	b := &builder{doc: doc, built: make(map[*yaml.Node]*Node)}
	for {
		var n yaml.Node
		err := dec.Decode(&n)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, newSyntaxError(doc, err)
		}
		file.Roots = append(file.Roots, b.document(&n))
	}
	for _, n := range b.mappings {
		n.flat = flatten(n, make(map[*Node]bool))
		n.flattened = true
	}
	return file, nil
}

// Find returns the node selected by path. The first segment selects the
// document by index.
func (f *File) Find(path yamlpath.Path) (*Node, bool) {
	first, ok := path.Segment(0)
	if !ok || first.Type != yamlpath.ValAtIndex || first.Index < 0 || first.Index >= len(f.Roots) {
		return nil, false
	}
	return Traverse(f.Roots[first.Index], path.Tail())
}

// Traverse follows path starting at n.
func Traverse(n *Node, path yamlpath.Path) (*Node, bool) {
	for _, s := range path.Segments() {
		n = n.Resolve()
		if n == nil {
			return nil, false
		}
		switch s.Type {
		case yamlpath.ValAtIndex:
			if n.Kind != KindSequence || s.Index < 0 || s.Index >= len(n.Items) {
				return nil, false
			}
			n = n.Items[s.Index]
		case yamlpath.ValAtKey, yamlpath.KeyAtKey:
			if n.Kind != KindMapping {
				return nil, false
			}
			var next *Node
			for _, e := range n.FlatEntries() {
				if k, ok := ScalarText(e.Key); ok && k == s.Key {
					next = e.Value
					if s.Type == yamlpath.KeyAtKey {
						next = e.Key
					}
					break
				}
			}
			if next == nil {
				return nil, false
			}
			n = next
		}
	}
	return n, n != nil
}

type builder struct {
	doc      *document.Document
	built    map[*yaml.Node]*Node
	mappings []*Node
}

func (b *builder) document(n *yaml.Node) *Node {
	if n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			start := b.offset(n)
			return &Node{Kind: KindOther, Start: start, End: start, Line: n.Line, Column: n.Column}
		}
		return b.build(n.Content[0])
	}
	return b.build(n)
}

func (b *builder) offset(n *yaml.Node) int {
	if n.Line <= 0 {
		return 0
	}
	return b.doc.OffsetAt(n.Line-1, n.Column-1)
}

func (b *builder) build(n *yaml.Node) *Node {
	if done, ok := b.built[n]; ok {
		return done
	}
	start := b.offset(n)
	out := &Node{
		Start:  start,
		Line:   n.Line,
		Column: n.Column,
		Value:  n.Value,
		Tag:    n.Tag,
		Anchor: n.Anchor,
		Flow:   n.Style&yaml.FlowStyle != 0,
	}
	b.built[n] = out
	text := b.doc.Text()

	switch n.Kind {
	case yaml.ScalarNode:
		out.Kind = KindScalar
		out.Start = skipProperties(text, start)
		out.End = b.scalarEnd(n, out.Start)
	case yaml.AliasNode:
		out.Kind = KindAlias
		if n.Alias != nil {
			out.Target = b.build(n.Alias)
		}
		out.End = start + 1 + len(n.Value)
	case yaml.MappingNode:
		out.Kind = KindMapping
		for i := 0; i+1 < len(n.Content); i += 2 {
			out.Entries = append(out.Entries, &Entry{
				Key:   b.build(n.Content[i]),
				Value: b.build(n.Content[i+1]),
			})
		}
		b.mappings = append(b.mappings, out)
		out.End = b.collectionEnd(out, start)
	case yaml.SequenceNode:
		out.Kind = KindSequence
		for _, c := range n.Content {
			out.Items = append(out.Items, b.build(c))
		}
		out.End = b.collectionEnd(out, start)
	default:
		out.Kind = KindOther
		out.End = start
	}
	if out.End < out.Start {
		out.End = out.Start
	}
	return out
}

func (b *builder) collectionEnd(n *Node, start int) int {
	text := b.doc.Text()
	if n.Flow {
		open := skipProperties(text, start)
		if open < len(text) && (text[open] == '{' || text[open] == '[') {
			return matchBracket(text, open)
		}
	}
	end := start
	for _, e := range n.Entries {
		end = max(end, e.Key.End, e.Value.End)
	}
	for _, item := range n.Items {
		end = max(end, item.End)
	}
	return end
}

func (b *builder) scalarEnd(n *yaml.Node, start int) int {
	text := b.doc.Text()
	switch {
	case n.Style&yaml.DoubleQuotedStyle != 0:
		return scanDoubleQuoted(text, start)
	case n.Style&yaml.SingleQuotedStyle != 0:
		return scanSingleQuoted(text, start)
	case n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0:
		return b.scanBlockScalar(start)
	}
	if n.Value == "" {
		return start
	}
	if strings.HasPrefix(text[start:], n.Value) {
		return start + len(n.Value)
	}
	// Multi-line plain scalars are folded; every word of the value still
	// appears in order in the source.
	pos := start
	for _, word := range strings.Fields(n.Value) {
		idx := strings.Index(text[pos:], word)
		if idx < 0 {
			break
		}
		pos += idx + len(word)
	}
	return pos
}

// skipProperties moves past `&anchor` and `!tag` prefixes of a node.
func skipProperties(text string, pos int) int {
	for pos < len(text) && (text[pos] == '&' || text[pos] == '!') {
		for pos < len(text) && !isSpace(text[pos]) {
			pos++
		}
		for pos < len(text) && isSpace(text[pos]) {
			pos++
		}
	}
	return pos
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func scanDoubleQuoted(text string, start int) int {
	for i := start + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(text)
}

func scanSingleQuoted(text string, start int) int {
	for i := start + 1; i < len(text); i++ {
		if text[i] == '\'' {
			if i+1 < len(text) && text[i+1] == '\'' {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(text)
}

// scanBlockScalar finds the end of a literal or folded scalar whose header
// starts at start. Content lines are those indented deeper than the header
// line.
func (b *builder) scanBlockScalar(start int) int {
	doc := b.doc
	headerLine := doc.LineOf(start)
	base := doc.Indentation(start)
	end := doc.TrimEnd(document.Region{Start: start, End: doc.LineEnd(headerLine)}).End
	for line := headerLine + 1; line < doc.LineCount(); line++ {
		content := doc.LineText(line)
		if strings.TrimSpace(content) == "" {
			continue
		}
		if len(content)-len(strings.TrimLeft(content, " ")) <= base {
			break
		}
		end = doc.TrimEnd(document.Region{Start: doc.LineStart(line), End: doc.LineEnd(line)}).End
	}
	return end
}

// matchBracket returns the offset just past the bracket closing the one at
// open, skipping quoted text.
func matchBracket(text string, open int) int {
	depth := 0
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		case '"':
			i = scanDoubleQuoted(text, i) - 1
		case '\'':
			i = scanSingleQuoted(text, i) - 1
		case '#':
			if i > 0 && isSpace(text[i-1]) {
				for i < len(text) && text[i] != '\n' {
					i++
				}
			}
		}
	}
	return len(text)
}

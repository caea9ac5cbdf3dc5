// Package render formats problems for people and for other programs.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/itchyny/go-yaml"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"

	"github.com/speakeasy-api/yschema/document"
	"github.com/speakeasy-api/yschema/problem"
)

// Format selects an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
}

// ColorMode controls ANSI colors in text output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Options configure rendering.
type Options struct {
	Format Format
	Color  ColorMode
	// MinSeverity hides problems below it.
	MinSeverity problem.Severity
}

// DefaultOptions renders colored text when writing to a terminal.
func DefaultOptions() Options {
	return Options{Format: FormatText, Color: ColorAuto, MinSeverity: problem.SeverityInfo}
}

// Report is the machine readable form of the problems of one document.
type Report struct {
	URI      string    `json:"uri" yaml:"uri"`
	Problems []Located `json:"problems" yaml:"problems"`
}

// Located is a problem with its 1-based line and column.
type Located struct {
	problem.Problem `yaml:",inline"`
	Line            int `json:"line" yaml:"line"`
	Column          int `json:"column" yaml:"column"`
}

// Write renders the problems of doc to w.
func Write(w io.Writer, doc *document.Document, problems []problem.Problem, opts Options) error {
	shown := visible(problems, opts.MinSeverity)
	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report(doc, shown))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report(doc, shown)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return Text(w, doc, shown, useColor(w, opts.Color))
	}
}

func visible(problems []problem.Problem, min problem.Severity) []problem.Problem {
	var out []problem.Problem
	for _, p := range problems {
		if p.Severity >= min {
			out = append(out, p)
		}
	}
	return out
}

func report(doc *document.Document, problems []problem.Problem) Report {
	r := Report{URI: doc.URI(), Problems: make([]Located, 0, len(problems))}
	for _, p := range problems {
		line, col := doc.Position(p.Region.Start)
		r.Problems = append(r.Problems, Located{Problem: p, Line: line + 1, Column: col + 1})
	}
	return r
}

func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiFaint  = "\x1b[2m"
)

func severityColor(s problem.Severity) string {
	switch s {
	case problem.SeverityError:
		return ansiRed
	case problem.SeverityWarning:
		return ansiYellow
	default:
		return ansiBlue
	}
}

// Text renders problems in a compiler-like format: a location header
// followed by the offending source line and a marker under the region.
func Text(w io.Writer, doc *document.Document, problems []problem.Problem, color bool) error {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + ansiReset
	}

	var b strings.Builder
	for _, p := range problems {
		line, col := doc.Position(p.Region.Start)
		fmt.Fprintf(&b, "%s:%d:%d: %s: %s %s\n",
			doc.URI(), line+1, col+1,
			paint(severityColor(p.Severity), p.Severity.String()),
			paint(ansiBold, p.Message),
			paint(ansiFaint, "["+p.Type.Code+"]"))

		text := strings.TrimRight(doc.LineText(line), "\r\n")
		lineStart := doc.LineStart(line)
		gutter := fmt.Sprintf("%5d | ", line+1)
		b.WriteString(paint(ansiFaint, gutter))
		b.WriteString(text)
		b.WriteByte('\n')
		b.WriteString(strings.Repeat(" ", runewidth.StringWidth(gutter)))
		b.WriteString(paint(severityColor(p.Severity), marker(text, p.Region.Start-lineStart, p.Region.End-lineStart)))
		b.WriteByte('\n')
		if p.Fix != nil {
			fmt.Fprintf(&b, "%s fix available: %s\n", strings.Repeat(" ", runewidth.StringWidth(gutter)-2), p.Fix.Title)
		}
	}
	if n := len(problems); n > 0 {
		fmt.Fprintf(&b, "%s\n", summary(problems))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// marker underlines the columns [start, end) of text, clipped to the line.
// East Asian wide characters take two columns.
func marker(text string, start, end int) string {
	start = max(0, min(start, len(text)))
	end = max(start, min(end, len(text)))
	pad := runewidth.StringWidth(strings.Map(tabToSpace, text[:start]))
	width := runewidth.StringWidth(strings.Map(tabToSpace, text[start:end]))
	if width == 0 {
		return strings.Repeat(" ", pad) + "^"
	}
	return strings.Repeat(" ", pad) + strings.Repeat("~", width)
}

func tabToSpace(r rune) rune {
	if r == '\t' {
		return ' '
	}
	return r
}

func summary(problems []problem.Problem) string {
	counts := make(map[problem.Severity]int)
	for _, p := range problems {
		counts[p.Severity]++
	}
	var parts []string
	for _, s := range []problem.Severity{problem.SeverityError, problem.SeverityWarning, problem.SeverityInfo} {
		if n := counts[s]; n > 0 {
			name := s.String()
			if n > 1 {
				name += "s"
			}
			parts = append(parts, fmt.Sprintf("%d %s", n, name))
		}
	}
	return strings.Join(parts, ", ")
}

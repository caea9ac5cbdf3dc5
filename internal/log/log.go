// Package log is the leveled logger shared by the reconciler, the schema
// importer and the command line tool.
package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Level represents the severity level for logs.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name. Unknown names map to LevelWarn.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "INFO":
		return LevelInfo
	case "DEBUG":
		return LevelDebug
	default:
		return LevelWarn
	}
}

// Logger is the logging interface used throughout the module.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	// With returns a child logger augmented with the provided fields.
	With(fields map[string]any) Logger
}

// Options configure New.
type Options struct {
	Level Level
	// Timestamps adds an RFC3339 timestamp to every line.
	Timestamps bool
}

// textLogger writes lines of the form
//
//	[LEVEL] ts msg key=val ...
//
// Fields are rendered once, when With is called, sorted by key.
type textLogger struct {
	out        io.Writer
	opts       Options
	fields     map[string]any
	fieldsText string

	// shared with child loggers
	mu *sync.Mutex
}

// New creates a text logger. If w is nil, os.Stderr is used.
func New(w io.Writer, opts Options) Logger {
	if w == nil {
		w = os.Stderr
	}
	return &textLogger{out: w, opts: opts, mu: &sync.Mutex{}}
}

func (l *textLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &textLogger{
		out:        l.out,
		opts:       l.opts,
		fields:     merged,
		fieldsText: renderFields(merged),
		mu:         l.mu,
	}
}

func renderFields(fields map[string]any) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, fieldValue(fields[k]))
	}
	return b.String()
}

func fieldValue(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case fmt.Stringer:
		s = t.String()
	default:
		return fmt.Sprint(v)
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' }) {
		return strconv.Quote(s)
	}
	return s
}

func (l *textLogger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *textLogger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *textLogger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *textLogger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

func (l *textLogger) logf(level Level, format string, args ...any) {
	if level > l.opts.Level {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", level)
	if l.opts.Timestamps {
		b.WriteString(time.Now().UTC().Format(time.RFC3339Nano))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, format, args...)
	b.WriteString(l.fieldsText)
	b.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, b.String())
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any)         {}
func (noopLogger) Infof(string, ...any)          {}
func (noopLogger) Warnf(string, ...any)          {}
func (noopLogger) Errorf(string, ...any)         {}
func (l noopLogger) With(map[string]any) Logger { return l }

// Noop returns a logger that discards all output.
func Noop() Logger { return noopLogger{} }

// OrNoop returns l, or a no-op logger when l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return Noop()
	}
	return l
}

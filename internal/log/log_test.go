package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelWarn,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{Level: LevelWarn})
	l.Debugf("hidden")
	l.Infof("hidden")
	l.Warnf("shown %d", 1)
	l.Errorf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug/info should be filtered: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 1\n") || !strings.Contains(out, "[ERROR] shown 2\n") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestWithFieldsSortedAndQuoted(t *testing.T) {
	var buf bytes.Buffer
	root := New(&buf, Options{Level: LevelDebug})
	child := root.With(map[string]any{"uri": "mem://a b.yml", "docs": 2})
	child.Debugf("walk")
	root.Debugf("plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", lines)
	}
	if lines[0] != `[DEBUG] walk docs=2 uri="mem://a b.yml"` {
		t.Errorf("child line = %q", lines[0])
	}
	if lines[1] != "[DEBUG] plain" {
		t.Errorf("parent should not inherit child fields: %q", lines[1])
	}
}

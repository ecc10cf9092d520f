package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, WARN)
	l.Infof("should not appear")
	l.Errorf("should appear: %d", 42)

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Fatalf("INFO line leaked past WARN level: %q", out)
	}
	if !strings.Contains(out, "should appear: 42") {
		t.Fatalf("ERROR line missing: %q", out)
	}
}

func TestNonFileWriterNeverColorizes(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, DEBUG)
	l.Debugf("plain")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected no ANSI escapes writing to a non-file buffer, got %q", buf.String())
	}
}

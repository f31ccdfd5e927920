package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestZeroLoggerDiscards(t *testing.T) {
	var l Logger
	l.Error("ignored", slog.String("k", "v"))
	Nop().Warn("ignored")
	if l.Level() != DefaultLevel {
		t.Errorf("Level() = %v", l.Level())
	}
	if w := l.With(slog.Int("n", 1)); w.Logger != nil {
		t.Error("With on a zero logger should stay a no-op")
	}
}

func TestTextOutput(t *testing.T) {
	var buf bytes.Buffer
	l := Make(&buf, WithLevel(LevelInfo), WithTimeLayout(""))
	l.Debug("hidden")
	l.Info("parsed", slog.String("path", "a.html"))

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("debug record should be filtered: %q", got)
	}
	if got != "level=INFO msg=parsed path=a.html\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestJSONOutputWith(t *testing.T) {
	var buf bytes.Buffer
	l := Make(&buf, WithFormat(FormatJSON), WithTimeLayout("")).With(slog.String("component", "session"))
	l.Warn("unknown config key", slog.String("key", "general.colour"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if rec["component"] != "session" || rec["key"] != "general.colour" || rec["level"] != "WARN" {
		t.Errorf("unexpected record %v", rec)
	}
	if _, ok := rec["time"]; ok {
		t.Error("time should be omitted")
	}
}

func TestWrap(t *testing.T) {
	var buf bytes.Buffer
	l := Make(&buf, WithTimeLayout("")).Wrap(WithLevel(LevelDebug))
	l.Debug("miss")
	if !strings.Contains(buf.String(), "msg=miss") {
		t.Errorf("expected the debug record, got %q", buf.String())
	}
	if l.Level() != LevelDebug {
		t.Errorf("Level() = %v", l.Level())
	}
}

func TestParse(t *testing.T) {
	levels := map[string]Level{"debug": LevelDebug, "INFO": LevelInfo, "warn": LevelWarn, "error": LevelError, "bogus": DefaultLevel}
	for s, want := range levels {
		if got := ParseLevel(s); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", s, got, want)
		}
	}
	if ParseFormat(" JSON ") != FormatJSON || ParseFormat("text") != FormatText || ParseFormat("xml") != DefaultFormat {
		t.Error("unexpected ParseFormat result")
	}
}

package logger

import (
	"bytes"
	"strings"
	"testing"
)

func newBufferLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.Colorize = false
	cfg.ShowTime = false
	cfg.Output = buf
	return New(cfg), buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{" error ", ERROR},
		{"fatal", FATAL},
		{"nonsense", INFO},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	log, buf := newBufferLogger(WARN)

	log.Debugf("debug %d", 1)
	log.Infof("info %d", 2)
	if buf.Len() != 0 {
		t.Errorf("Expected nothing below WARN to be written, got %q", buf.String())
	}

	log.Warnf("warn %d", 3)
	if !strings.Contains(buf.String(), "warn 3") {
		t.Errorf("Expected warn line, got %q", buf.String())
	}
}

func TestSetLevel(t *testing.T) {
	log, buf := newBufferLogger(INFO)

	log.Debugf("hidden")
	log.SetLevel(DEBUG)
	log.Debugf("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Expected debug line before SetLevel to be dropped")
	}
	if !strings.Contains(out, "visible") {
		t.Error("Expected debug line after SetLevel to be written")
	}
	if log.Level() != DEBUG {
		t.Errorf("Expected level DEBUG, got %v", log.Level())
	}
}

func TestWithPrefix(t *testing.T) {
	log, buf := newBufferLogger(INFO)

	log.WithPrefix("storage").Infof("opened")

	out := buf.String()
	if !strings.Contains(out, "component=storage") {
		t.Errorf("Expected component field in %q", out)
	}
}

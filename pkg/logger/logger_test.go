package logger

import (
	"errors"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"INFO", "info"},
		{" warn ", "warn"},
		{"error", "error"},
		{"", "info"},
		{"verbose", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in).String(); got != tt.want {
				t.Fatalf("parseLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggerEnabled(t *testing.T) {
	log := New("warn")

	if log.Enabled("info") {
		t.Fatalf("info must be disabled at warn level")
	}
	if !log.Enabled("error") {
		t.Fatalf("error must be enabled at warn level")
	}

	child := log.With("component", "test")
	if child.Enabled("debug") {
		t.Fatalf("child logger must inherit level")
	}
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	log := NewNop()
	log.Debug("debug", "k", 1)
	log.Info("info")
	log.Warn("warn", "k", "v")
	log.Error("error", errors.New("boom"), "k", "v")
	log.Error("error without err", nil)
}

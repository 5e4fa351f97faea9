package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"console", "json", ""} {
		log, err := New("warn", format)
		if err != nil {
			t.Fatalf("New(%q): %v", format, err)
		}
		if log.Core().Enabled(zapcore.InfoLevel) {
			t.Errorf("format %q: info should be disabled at warn", format)
		}
		if !log.Core().Enabled(zapcore.ErrorLevel) {
			t.Errorf("format %q: error should be enabled at warn", format)
		}
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New("loud", "console"); err == nil {
		t.Error("Expected error for unknown level")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

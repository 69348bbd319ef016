package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   zapcore.Level
		wantOK bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{"info", zapcore.InfoLevel, true},
		{"warn", zapcore.WarnLevel, true},
		{"WARNING", zapcore.WarnLevel, true},
		{" error ", zapcore.ErrorLevel, true},
		{"verbose", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lvl, ok := parseLevel(tt.in)
			if ok != tt.wantOK || lvl != tt.want {
				t.Errorf("parseLevel(%q) = %v, %v, want %v, %v", tt.in, lvl, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestWith_AddsFieldsToEveryEntry(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromCore(core).With(Component("importer"), String("import_id", "abc"))

	l.Info("import started", Strings("urls", []string{"https://example.com"}))
	l.Warn("import failed", Bool("timeout", true))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	for _, e := range entries {
		ctx := e.ContextMap()
		if ctx["component"] != "importer" || ctx["import_id"] != "abc" {
			t.Errorf("entry %q missing child fields: %v", e.Message, ctx)
		}
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("second entry level = %v, want warn", entries[1].Level)
	}
}

func TestNop(t *testing.T) {
	l := NewNop().With(String("import_id", "x"))
	l.Info("discarded")
	if err := l.Sync(); err != nil {
		t.Errorf("Sync() = %v", err)
	}
}

package logging

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestFieldHelpers(t *testing.T) {
	testErr := errors.New("install failed")
	tests := []struct {
		name  string
		field Field
		key   string
		value any
	}{
		{"String", String("target", "user_func_fib"), "target", "user_func_fib"},
		{"Int", Int("entries", 2), "entries", 2},
		{"Int64", Int64("result", 880), "result", int64(880)},
		{"Uint64", Uint64("k", 79), "k", uint64(79)},
		{"Float64", Float64("ratio", 1.5), "ratio", 1.5},
		{"Err", Err(testErr), "error", testErr},
		{"Err nil", Err(nil), "error", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.field.Key != tt.key {
				t.Errorf("Key = %q, want %q", tt.field.Key, tt.key)
			}
			if tt.field.Value != tt.value {
				t.Errorf("Value = %v, want %v", tt.field.Value, tt.value)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "lifecycle")
	logger.Info("patch enabled", String("object", "calc"))

	out := buf.String()
	for _, want := range []string{"lifecycle", "patch enabled", "calc", "info"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q, got: %s", want, out)
		}
	}
}

func TestNewDefaultLogger(t *testing.T) {
	if NewDefaultLogger() == nil {
		t.Fatal("NewDefaultLogger returned nil")
	}
}

func TestZerologAdapter_Levels(t *testing.T) {
	tests := []struct {
		name     string
		log      func(Logger)
		contains []string
	}{
		{
			name:     "info",
			log:      func(l Logger) { l.Info("function nop is now patched") },
			contains: []string{"function nop is now patched", `"level":"info"`},
		},
		{
			name:     "warn",
			log:      func(l Logger) { l.Warn("patch set not active", String("state", "disabled")) },
			contains: []string{"patch set not active", "disabled", `"level":"warn"`},
		},
		{
			name:     "error",
			log:      func(l Logger) { l.Error("activation failed", errors.New("busy"), Int("handles", 2)) },
			contains: []string{"activation failed", "busy", `"handles":2`, `"level":"error"`},
		},
		{
			name:     "error with nil error",
			log:      func(l Logger) { l.Error("rollback incomplete", nil) },
			contains: []string{"rollback incomplete", `"level":"error"`},
		},
		{
			name:     "printf",
			log:      func(l Logger) { l.Printf("fib(%d) = %d", 10, 55) },
			contains: []string{"fib(10) = 55"},
		},
		{
			name:     "println",
			log:      func(l Logger) { l.Println("installed", 2, "targets") },
			contains: []string{"installed 2 targets"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewLogger(&buf, "test"))
			out := buf.String()
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output should contain %q, got: %s", want, out)
				}
			}
		})
	}
}

func TestZerologAdapter_Debug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologAdapter(zerolog.New(&buf).Level(zerolog.DebugLevel))
	logger.Debug("resolved target", String("target", "user_func_nop"))

	if !strings.Contains(buf.String(), "resolved target") {
		t.Errorf("Debug output should contain message, got: %s", buf.String())
	}
}

func TestZerologAdapter_WithLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "test").WithLevel("warn")

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record should be filtered at warn level, got: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn record should pass at warn level, got: %s", out)
	}

	if same := logger.WithLevel("not-a-level"); same != logger {
		t.Error("unknown level should return the adapter unchanged")
	}
}

func TestZerologAdapter_applyFields(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		contains string
	}{
		{"string", Field{Key: "s", Value: "calc"}, "calc"},
		{"int64", Field{Key: "raw", Value: int64(9223372036854775807)}, "9223372036854775807"},
		{"uint64", Field{Key: "k", Value: uint64(18446744073709551615)}, "18446744073709551615"},
		{"float64", Field{Key: "f", Value: 3.25}, "3.25"},
		{"error", Field{Key: "cause", Value: errors.New("oops")}, "oops"},
		{"bool", Field{Key: "active", Value: true}, "true"},
		{"struct", Field{Key: "handle", Value: struct{ ID int }{ID: 7}}, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(&buf, "test").Info("fields", tt.field)
			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("output should contain %q, got: %s", tt.contains, buf.String())
			}
		})
	}
}

func TestStdLoggerAdapter(t *testing.T) {
	tests := []struct {
		name     string
		log      func(Logger)
		contains []string
	}{
		{"info", func(l Logger) { l.Info("enabled", String("strategy", "combined")) }, []string{"[INFO]", "enabled", "strategy=combined"}},
		{"warn", func(l Logger) { l.Warn("already inactive") }, []string{"[WARN]", "already inactive"}},
		{"error", func(l Logger) { l.Error("failed", errors.New("boom")) }, []string{"[ERROR]", "failed", "boom"}},
		{"debug", func(l Logger) { l.Debug("trace", Int("line", 42)) }, []string{"[DEBUG]", "trace", "line=42"}},
		{"printf", func(l Logger) { l.Printf("value is %d", 123) }, []string{"value is 123"}},
		{"println", func(l Logger) { l.Println("a", "b") }, []string{"a b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewStdLoggerAdapter(log.New(&buf, "", 0)))
			for _, want := range tt.contains {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output should contain %q, got: %s", want, buf.String())
				}
			}
		})
	}
}

func TestLoggerInterface(t *testing.T) {
	var buf bytes.Buffer
	var _ Logger = NewLogger(&buf, "test")
	var _ Logger = NewConsoleLogger(&buf, "test")
	var _ Logger = NewStdLoggerAdapter(log.New(&buf, "", 0))
	Nop().Info("discarded")
}

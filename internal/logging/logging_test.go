package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
		wantErr  bool
	}{
		{input: "", expected: zerolog.InfoLevel},
		{input: "debug", expected: zerolog.DebugLevel},
		{input: "WARN", expected: zerolog.WarnLevel},
		{input: "trace", expected: zerolog.TraceLevel},
		{input: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if level != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, level, tt.expected)
			}
		})
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.WarnLevel, false)

	logger.Info().Msg("hidden")
	logger.Warn().Str("type", "pipe.Each").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message leaked at warn level: %s", out)
	}
	if !strings.Contains(out, `"type":"pipe.Each"`) || !strings.Contains(out, `"time":`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestNewPretty(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.InfoLevel, true)
	logger.Info().Msg("pretty")

	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("pretty output should not be JSON: %s", buf.String())
	}
}

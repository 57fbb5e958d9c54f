package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestInit_SingletonAndFields(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	l := Init(Options{Level: "info", Service: "svc", Output: &buf})
	l.Info().Msg("hello")
	l.Debug().Msg("hidden")

	out := buf.String()
	if !strings.Contains(out, `"service":"svc"`) || !strings.Contains(out, "hello") {
		t.Fatalf("unexpected output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry should be filtered: %s", out)
	}

	var other bytes.Buffer
	Init(Options{Output: &other})
	got := Get()
	got.Info().Msg("again")
	if other.Len() != 0 || !strings.Contains(buf.String(), "again") {
		t.Fatalf("second Init must not replace the logger")
	}
}

func TestForEnv(t *testing.T) {
	if ForEnv("production", "info").Pretty {
		t.Fatalf("production should emit JSON")
	}
	if !ForEnv("development", "debug").Pretty {
		t.Fatalf("development should use the console writer")
	}
}

package sysutil

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func keepLogGlobals(t *testing.T) {
	t.Helper()
	lvl, l, ctx := zerolog.GlobalLevel(), log.Logger, zerolog.DefaultContextLogger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(lvl)
		log.Logger = l
		zerolog.DefaultContextLogger = ctx
	})
}

func TestParseLevel(t *testing.T) {
	cases := map[string]struct {
		want  zerolog.Level
		known bool
	}{
		"debug":     {zerolog.DebugLevel, true},
		"  DeBuG  ": {zerolog.DebugLevel, true},
		"":          {zerolog.InfoLevel, true},
		"warning":   {zerolog.WarnLevel, true},
		"error":     {zerolog.ErrorLevel, true},
		"fatal":     {zerolog.FatalLevel, true},
		"panic":     {zerolog.PanicLevel, true},
		"verbose":   {zerolog.InfoLevel, false},
	}
	for in, tc := range cases {
		got, known := ParseLevel(in)
		if got != tc.want || known != tc.known {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", in, got, known, tc.want, tc.known)
		}
	}
}

func TestInitLogger_FieldsAndLevel(t *testing.T) {
	keepLogGlobals(t)

	var buf bytes.Buffer
	initLogger(&buf, LogOptions{Level: "warn", Service: "dealer-assistant", Version: "1.2.0"})

	log.Info().Msg("dropped")
	log.Warn().Str("dealer", "D001").Msg("kept")

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	for k, want := range map[string]any{"message": "kept", "dealer": "D001", "service": "dealer-assistant", "version": "1.2.0"} {
		if line[k] != want {
			t.Errorf("%s = %v, want %v", k, line[k], want)
		}
	}
	if line["time"] == nil {
		t.Errorf("missing timestamp: %v", line)
	}
	if zerolog.DefaultContextLogger == nil {
		t.Fatalf("context logger not set")
	}
}

func TestInitLogger_OmitsEmptyFields(t *testing.T) {
	keepLogGlobals(t)

	var buf bytes.Buffer
	initLogger(&buf, LogOptions{Level: "nonsense"})
	log.Info().Msg("hello")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("unknown level should fall back to info, got %v", zerolog.GlobalLevel())
	}
	if bytes.Contains(buf.Bytes(), []byte(`"service"`)) || bytes.Contains(buf.Bytes(), []byte(`"version"`)) {
		t.Fatalf("empty fields written: %s", buf.String())
	}

	InitLogger(LogOptions{Level: "debug", Pretty: true})
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("level = %v", zerolog.GlobalLevel())
	}
}

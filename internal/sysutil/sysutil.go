// Package sysutil wires process-wide concerns that every command needs before
// it does any work, currently the global zerolog logger.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogOptions describes the global logger.
type LogOptions struct {
	Level   string // debug|info|warn|error|fatal|panic; anything else is info
	Pretty  bool   // console writer on stderr instead of JSON on stdout
	Service string // added to every line when set
	Version string
}

// InitLogger replaces log.Logger and zerolog's context default, then applies
// the level globally.
func InitLogger(opts LogOptions) {
	var w io.Writer = os.Stdout
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	initLogger(w, opts)
}

func initLogger(w io.Writer, opts LogOptions) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	lc := zerolog.New(w).With().Timestamp()
	if opts.Service != "" {
		lc = lc.Str("service", opts.Service)
	}
	if opts.Version != "" {
		lc = lc.Str("version", opts.Version)
	}
	log.Logger = lc.Logger()
	zerolog.DefaultContextLogger = &log.Logger

	lvl, _ := ParseLevel(opts.Level)
	zerolog.SetGlobalLevel(lvl)
}

// ParseLevel maps a level name to zerolog's, accepting "warning" for warn.
// Unknown names give InfoLevel and false; empty is info without complaint.
func ParseLevel(s string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel, true
	case "info", "":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "fatal":
		return zerolog.FatalLevel, true
	case "panic":
		return zerolog.PanicLevel, true
	}
	return zerolog.InfoLevel, false
}

// Package obslog wires github.com/rs/zerolog as the core's structured
// logger, the same backend joeycumines-go-utilpkg/logiface-zerolog uses
// underneath its logiface DSL. We talk to zerolog directly: the core only
// needs a handful of leveled, keyed log lines (sample progress, squeeze
// steps, worker faults), which does not justify carrying the extra DSL
// layer on top.
package obslog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns a logger writing human-readable console output to w
// (stderr when w is nil).
// verbose raises the level to Debug; otherwise only Warn and above print,
// matching the CLI's -v/--verbose semantic (spec.md §6).
func New(verbose bool, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything, for tests and library
// callers that don't want CLI-style console output.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// Package cli owns command-line parsing and logging setup, mirroring how
// the teacher splits these concerns out of main() (§6).
package cli

import (
	"os"

	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("cli")

// InitLogging configures the stderr logging backend at the given level.
// Unlike the teacher, this does not detect an interactive terminal for
// colour (no corresponding dependency is wired into this module; see
// DESIGN.md), so output is always plain.
func InitLogging(verbosity logging.Level) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatter := logging.MustStringFormatter("%{time:15:04:05.000} %{level:7s}: %{message}")
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(verbosity, "")
	logging.SetBackend(leveled)
}

// ParseVerbosity maps the --verbosity flag's string form onto a
// go-logging level, defaulting to WARNING on anything unrecognized.
func ParseVerbosity(s string) logging.Level {
	switch s {
	case "error":
		return logging.ERROR
	case "warning":
		return logging.WARNING
	case "notice":
		return logging.NOTICE
	case "info":
		return logging.INFO
	case "debug":
		return logging.DEBUG
	default:
		log.Warningf("unrecognized verbosity %q, defaulting to warning", s)
		return logging.WARNING
	}
}

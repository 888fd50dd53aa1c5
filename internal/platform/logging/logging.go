/*
Package logging builds the structured slog.Logger used throughout
OrmKit's CLI and adapters.

Generalized from the teacher's cmd/api/main.go bootstrap
(slog.NewJSONHandler over stdout, a debug-level switch, a
With(slog.String("app", ...)) base field).
*/
package logging

import (
	"log/slog"
	"os"
)

// New builds a JSON-handler slog.Logger tagged with component,
// matching debug to the configured verbosity.
func New(component string, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("component", component))
}

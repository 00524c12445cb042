package logging

import (
	"io"
	"log/slog"
	"os"
)

// SetupJSON installs a JSON logger on stdout as slog's default. Every line
// carries the name of the command that wrote it.
func SetupJSON(level slog.Level, service string) {
	slog.SetDefault(NewJSON(os.Stdout, level, service))
}

func NewJSON(w io.Writer, level slog.Level, service string) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})

	return slog.New(h).With("service", service)
}

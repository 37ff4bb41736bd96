package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds the process logger. Development gets a console writer, every other
// environment writes JSON that Cloud Logging can parse. Unknown levels fall back to info.
func New(env, level string) zerolog.Logger {
	return newWithWriter(os.Stderr, env, level)
}

func newWithWriter(w io.Writer, env, level string) zerolog.Logger {
	// For Google Cloud Logging, the level field name should be "severity".
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	out := w
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: w}
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Str("app", "skillenergy").Logger()
}

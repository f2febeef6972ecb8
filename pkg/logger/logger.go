// pkg/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

var (
	// Log is the global logger instance
	Log zerolog.Logger

	output     io.Writer = os.Stdout
	jsonFormat bool
)

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	Log = build(zerolog.InfoLevel)
	log.Logger = Log
}

func build(level zerolog.Level) zerolog.Logger {
	if jsonFormat {
		return newLogger(output, level)
	}
	return newLogger(consoleWriter(output), level)
}

func consoleWriter(out io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

func newLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Caller().
		Logger()
}

// SetLevel sets the log level. Server modes ("debug", "release") are accepted
// alongside zerolog level names.
func SetLevel(levelStr string) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "release", "production":
		levelStr = "info"
	case "test":
		levelStr = "warn"
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil || levelStr == "" {
		Log.Warn().Str("level", levelStr).Msg("invalid log level, defaulting to info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
	log.Logger = Log
}

// SetFormat switches between the colored console writer and plain JSON lines.
func SetFormat(format string) {
	jsonFormat = strings.EqualFold(format, "json")
	Log = build(Log.GetLevel())
	log.Logger = Log
}

// SetOutput redirects log lines, keeping level and format. The CLI sends them
// to stderr so stdout carries only command output.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	output = w
	Log = build(Log.GetLevel())
	log.Logger = Log
}

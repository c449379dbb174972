// Package log configures the process-wide zerolog logger: pretty
// console output in development, JSON elsewhere. Components take named
// sub-loggers via GetLogger so every line carries a module field.
package log

import (
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/plugnplai/relnotes/config"
)

var root zerolog.Logger

func init() {
	var out io.Writer = os.Stdout
	if config.Get().IsDevelopment() {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	root = zerolog.New(out).With().Timestamp().Logger()
}

// SetLevel changes the level for the root logger and every sub-logger.
// Unrecognized names fall back to info.
func SetLevel(name string) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func Debug() *zerolog.Event { return root.Debug() }
func Info() *zerolog.Event  { return root.Info() }
func Warn() *zerolog.Event  { return root.Warn() }
func Error() *zerolog.Event { return root.Error() }
func Fatal() *zerolog.Event { return root.Fatal() }

// GetLogger returns a sub-logger tagged with a module field
func GetLogger(module string) zerolog.Logger {
	return root.With().Str("module", module).Logger()
}

// errorLogWriter adapts zerolog for code that wants an io.Writer, such
// as http.Server's ErrorLog
type errorLogWriter struct {
	l zerolog.Logger
}

func (w errorLogWriter) Write(p []byte) (int, error) {
	w.l.Error().Msg(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// StdErrorLogger returns a stdlib logger backed by zerolog at error level
func StdErrorLogger() *stdlog.Logger {
	return stdlog.New(errorLogWriter{l: GetLogger("HTTP")}, "", 0)
}

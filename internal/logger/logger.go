// Package logger provides the process-wide structured logger, with a
// Tracef/Debugf/Infof/Warnf/Errorf calling convention backed by zerolog so
// every line is structured (level, timestamp, optional fields) instead of a
// flat text prefix.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
)

// SetLevel sets the minimum level that will be emitted. Accepts
// "trace", "debug", "info", "warn", "error" (case-insensitive); unknown
// values fall back to "info".
func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log = log.Level(lvl)
}

// SetOutput redirects log output, used by tests to capture emitted lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	log = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: true})
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

func Tracef(format string, args ...interface{}) {
	current().Trace().Msgf(format, args...)
}

func Debugf(format string, args ...interface{}) {
	current().Debug().Msgf(format, args...)
}

func Infof(format string, args ...interface{}) {
	current().Info().Msgf(format, args...)
}

func Warnf(format string, args ...interface{}) {
	current().Warn().Msgf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	current().Error().Msgf(format, args...)
}

// WithField returns a logger scoped to a single structured field, for call
// sites that want context (service/operation names) attached to every line
// without building it into the format string.
func WithField(key, value string) *Entry {
	return &Entry{ctx: current().With().Str(key, value).Logger()}
}

// Entry is a logger carrying extra structured context.
type Entry struct {
	ctx zerolog.Logger
}

func (e *Entry) Infof(format string, args ...interface{})  { e.ctx.Info().Msgf(format, args...) }
func (e *Entry) Warnf(format string, args ...interface{})  { e.ctx.Warn().Msgf(format, args...) }
func (e *Entry) Errorf(format string, args ...interface{}) { e.ctx.Error().Msgf(format, args...) }
func (e *Entry) Debugf(format string, args ...interface{}) { e.ctx.Debug().Msgf(format, args...) }

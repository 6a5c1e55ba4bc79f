package obs

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogConfig controls the global logger.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string
	// Format is json or console.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

var (
	logMu  sync.RWMutex
	logger = newLogger(LogConfig{})
)

// InitLog configures the shared logger. Safe to call more than once;
// later calls reconfigure it.
func InitLog(cfg LogConfig) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = newLogger(cfg)
}

func newLogger(cfg LogConfig) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}
	zerolog.TimeFieldFormat = time.RFC3339
	return zerolog.New(out).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "", "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns the shared structured logger.
func Logger() zerolog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	return logger
}

// With returns a child logger tagged with a category and source. Every
// subsystem logs through this so entries carry a uniform shape:
// {message, category, source, user_id?, metadata...}.
func With(category, source string) zerolog.Logger {
	return Logger().With().Str("category", category).Str("source", source).Logger()
}

// SetLoggerForTests swaps the shared logger, typically for one writing
// into a bytes.Buffer. Only intended for test use.
func SetLoggerForTests(l zerolog.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = l
}

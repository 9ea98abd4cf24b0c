// Package logger provides structured logging for the asset library engine
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with asset-library-specific functionality
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for development
	Output     io.Writer
	WithCaller bool
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(name string) zerolog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new structured logger
func NewLogger(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	// Pretty printing for development
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "assetlib").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// GetZerolog returns the underlying zerolog logger
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zlog
}

// Info logs an info message
func (l *Logger) Info(msg string) *zerolog.Event {
	return l.zlog.Info().Str("msg", msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) *zerolog.Event {
	return l.zlog.Debug().Str("msg", msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) *zerolog.Event {
	return l.zlog.Warn().Str("msg", msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) *zerolog.Event {
	return l.zlog.Error().Str("msg", msg)
}

// WithFields returns a logger with additional fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// StoreLogger returns a logger for metadata store operations
func (l *Logger) StoreLogger(operation string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "store").
			Str("operation", operation).
			Logger(),
	}
}

// LibraryLogger returns a logger scoped to one library root
func (l *Logger) LibraryLogger(name, root string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "library").
			Str("library", name).
			Str("root", root).
			Logger(),
	}
}

// RegistryLogger returns a logger for item registry operations
func (l *Logger) RegistryLogger() *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "registry").
			Logger(),
	}
}

// LogStoreWrite logs an atomic document write
func (l *Logger) LogStoreWrite(path string, size int, duration time.Duration, err error) {
	event := l.zlog.Debug().
		Str("component", "store").
		Str("path", path).
		Int("bytes", size).
		Dur("duration_ms", duration)

	if err != nil {
		event = l.zlog.Error().
			Str("component", "store").
			Str("path", path).
			Dur("duration_ms", duration).
			Err(err)
	}

	event.Msg("Store write completed")
}

// LogSearch logs a completed search
func (l *Logger) LogSearch(results int, groups int, duration time.Duration) {
	l.zlog.Debug().
		Str("event", "search").
		Int("results", results).
		Int("groups", groups).
		Dur("duration_ms", duration).
		Msg("Search completed")
}

// LogSync logs a completed (or failed) sync
func (l *Logger) LogSync(runID string, crawled, pruned, total int, duration time.Duration, err error) {
	event := l.zlog.Info().
		Str("event", "sync").
		Str("run_id", runID).
		Int("crawled", crawled).
		Int("pruned", pruned).
		Int("total", total).
		Dur("duration_ms", duration)

	if err != nil {
		event = l.zlog.Error().
			Str("event", "sync").
			Str("run_id", runID).
			Dur("duration_ms", duration).
			Err(err)
	}

	event.Msg("Sync completed")
}

// Global logger instance
var globalLogger *Logger

// InitGlobalLogger initializes the global logger
func InitGlobalLogger(cfg Config) {
	globalLogger = NewLogger(cfg)
	log.Logger = *globalLogger.GetZerolog()
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		// Initialize with defaults if not set
		InitGlobalLogger(Config{
			Level:  "info",
			Pretty: true,
		})
	}
	return globalLogger
}

// Package logging provides the structured logging layer shared by every
// component of the relay service: correlation-id-aware, component-scoped
// wrappers around logrus with optional rotated file output.
package logging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fields is a convenience alias so callers don't need to import logrus
// directly for structured log calls.
type Fields = logrus.Fields

// Logger wraps logrus.Logger and tags every entry with the owning
// component name. A Logger is safe for concurrent use.
type Logger struct {
	*logrus.Logger
	component string
	mu        sync.RWMutex
}

// Config controls level, format and destinations for a Logger.
type Config struct {
	Level          string `mapstructure:"level"`
	Format         string `mapstructure:"format"` // "text" or "json"
	FileEnabled    bool   `mapstructure:"file_enabled"`
	FilePath       string `mapstructure:"file_path"`
	MaxFileSizeMB  int    `mapstructure:"max_file_size_mb"`
	BackupCount    int    `mapstructure:"backup_count"`
	ConsoleEnabled bool   `mapstructure:"console_enabled"`
}

// correlationIDKeyType avoids collisions with other packages' context keys.
type correlationIDKeyType struct{}

var correlationIDKey correlationIDKeyType

// WithCorrelationID returns a context carrying a fresh correlation id, or
// the supplied one if non-empty.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID extracts the correlation id stashed by WithCorrelationID,
// generating one on the fly if the context carries none.
func CorrelationID(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey).(string); ok && v != "" {
		return v
	}
	return uuid.NewString()
}

var (
	globalLogger *Logger
	globalOnce   sync.Once
	globalMu     sync.RWMutex
	globalConfig = Config{Level: "info", Format: "text", ConsoleEnabled: true}
)

// New creates a logger for the given component using the process-wide
// configuration last installed via Configure.
func New(component string) *Logger {
	globalMu.RLock()
	cfg := globalConfig
	globalMu.RUnlock()

	l := &Logger{Logger: logrus.New(), component: component}
	apply(l, &cfg)
	return l
}

// Get returns the shared process-wide logger, creating it on first use.
func Get() *Logger {
	globalOnce.Do(func() {
		globalLogger = New("relay")
	})
	return globalLogger
}

// Configure installs the process-wide logging configuration. Subsequent
// calls to New (and the first call to Get) pick it up; Logger instances
// created earlier keep the configuration they were built with.
func Configure(cfg Config) error {
	globalMu.Lock()
	globalConfig = cfg
	globalMu.Unlock()

	if cfg.FileEnabled && cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}
	return nil
}

func apply(l *Logger, cfg *Config) {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05Z07:00"})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}

	switch {
	case cfg.FileEnabled && cfg.FilePath != "":
		rotator := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    maxOr(cfg.MaxFileSizeMB, 10),
			MaxBackups: cfg.BackupCount,
			Compress:   true,
		}
		if cfg.ConsoleEnabled {
			l.SetOutput(logrus.StandardLogger().Out)
			l.AddHook(&fileHook{writer: rotator, formatter: l.Formatter, level: level})
		} else {
			l.SetOutput(rotator)
		}
	case cfg.ConsoleEnabled:
		l.SetOutput(os.Stdout)
	default:
		l.SetOutput(noOpWriter{})
	}
}

func maxOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

// fileHook mirrors log entries into a rotated file while the primary
// output stays on the console; used when both sinks are enabled.
type fileHook struct {
	writer    *lumberjack.Logger
	formatter logrus.Formatter
	level     logrus.Level
}

func (h *fileHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *fileHook) Fire(e *logrus.Entry) error {
	if e.Level > h.level {
		return nil
	}
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(b)
	return err
}

type noOpWriter struct{}

func (noOpWriter) Write(p []byte) (int, error) { return len(p), nil }

// WithFields returns a logrus.Entry pre-tagged with the logger's component
// name in addition to the supplied fields.
func (l *Logger) WithFields(fields Fields) *logrus.Entry {
	l.mu.RLock()
	component := l.component
	l.mu.RUnlock()
	fields["component"] = component
	return l.Logger.WithFields(fields)
}

// WithField is the single-field convenience form of WithFields.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.WithFields(Fields{key: value})
}

// WithError attaches an error to the component-tagged entry.
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.WithFields(Fields{}).WithError(err)
}

// WithCorrelationID attaches the request's correlation id from ctx.
func (l *Logger) WithCorrelationID(ctx context.Context) *logrus.Entry {
	return l.WithField("correlation_id", CorrelationID(ctx))
}

// Component returns the name this logger tags entries with.
func (l *Logger) Component() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.component
}

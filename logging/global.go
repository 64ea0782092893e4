// Package logging sets up the process wide slog logger: a console handler
// plus a JSON handler writing to weekly rotating files.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/giygas/anemia-api/config"
)

type LoggingService struct {
	Logger   *slog.Logger
	rotating *RotatingLogger
}

var DefaultLoggingService *LoggingService

// Options configures InitLoggerWithOptions. An empty Dir logs to the
// console only.
type Options struct {
	Dir            string
	Env            config.Environment
	Level          string
	RetentionWeeks int
	MaxFileSize    int64
	Verbose        bool
}

// InitLogger initializes the global logger with development defaults
func InitLogger(logDir string) {
	InitLoggerWithOptions(Options{
		Dir:            logDir,
		Env:            config.EnvDevelopment,
		RetentionWeeks: 4,
		MaxFileSize:    defaultMaxFileSize,
	})
}

// InitLoggerWithOptions replaces the global logger, closing the previous
// rotating file if there was one
func InitLoggerWithOptions(opts Options) {
	previous := DefaultLoggingService

	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	service := &LoggingService{Logger: slog.New(consoleHandler)}

	if opts.Dir != "" {
		rotating, err := openRotating(opts)
		if err != nil {
			service.Logger.Error("Failed to initialize log file, logging to console only", "dir", opts.Dir, "error", err)
		} else {
			fileHandler := slog.NewJSONHandler(rotating, &slog.HandlerOptions{
				Level: GetFileLogLevel(),
			})
			service.rotating = rotating
			service.Logger = slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}})
		}
	}

	DefaultLoggingService = service
	slog.SetDefault(service.Logger)

	if previous != nil && previous.rotating != nil {
		_ = previous.rotating.Close()
	}
}

func openRotating(opts Options) (*RotatingLogger, error) {
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, err
	}

	rotating := NewRotatingLogger(opts.Dir, opts.RetentionWeeks, opts.MaxFileSize)
	rotating.mu.Lock()
	err := rotating.rotate(weekKey(time.Now()), false)
	rotating.mu.Unlock()
	if err != nil {
		return nil, err
	}

	rotating.startCleanup()
	return rotating, nil
}

// Close flushes and closes the log file of the global logger
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.rotating == nil {
		return nil
	}
	err := DefaultLoggingService.rotating.Close()
	DefaultLoggingService.rotating = nil
	return err
}

// GetConsoleLogLevel resolves the console level. Tests stay quiet unless
// verbose and ignore LOG_LEVEL; elsewhere LOG_LEVEL wins over the
// environment default.
func GetConsoleLogLevel(env config.Environment, levelStr string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if levelStr != "" {
		return parseLogLevel(levelStr)
	}

	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel is always debug, files are for post-mortems
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// logger returns the global logger or a console fallback when
// InitLogger was never called
func logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return DefaultLoggingService.Logger
}

// Logger returns the current global logger
func Logger() *slog.Logger {
	return logger()
}

func Info(msg string, args ...any) {
	logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	logger().Debug(msg, args...)
}

// multiHandler fans records out to every handler that accepts the level
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
)

// Options selects how much the tool prints and where the logs go.
type Options struct {
	Level string // debug, info, warn, error

	// Verbose and Silent override Level: verbose forces debug, silent
	// drops everything below error so failures still reach the console.
	Verbose bool
	Silent  bool

	// FileDir, when non-empty, adds a timestamped JSON log file in that
	// directory alongside the console output.
	FileDir string
}

// Setup configures the global slog logger from the given options.
func Setup(opts Options) error {
	level := parseLogLevel(opts.Level)
	if opts.Verbose {
		level = slog.LevelDebug
	}
	if opts.Silent {
		level = slog.LevelError
	}

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{Level: level})

	if opts.FileDir == "" {
		slog.SetDefault(slog.New(consoleHandler))
		return nil
	}

	logDir := os.ExpandEnv(opts.FileDir)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	logFilePath := filepath.Join(logDir, fmt.Sprintf("nrestool_%s.log", timestamp))

	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	fileHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level})

	slog.SetDefault(slog.New(
		slogmulti.Fanout(consoleHandler, fileHandler),
	))

	fmt.Fprintf(os.Stderr, "Logging to file: %s\n", logFilePath)
	return nil
}

// parseLogLevel converts a string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

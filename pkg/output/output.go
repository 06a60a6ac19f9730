package output

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pterm/pterm"
)

// Logger wraps slog.Logger with context-aware methods
type Logger interface {
	// Component returns a logger for a specific component
	Component(name string) Logger
	// With returns a logger with additional attributes
	With(args ...any) Logger

	// Standard log levels
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// OutputLogger handles both user output and structured logging
type OutputLogger struct {
	Logger
	jsonMode bool
}

// New creates a new OutputLogger
// If jsonMode is true, only structured logs go to stdout
// If jsonMode is false, structured logs go to file and user messages use pterm
func New(jsonMode bool) (*OutputLogger, error) {
	var slogLogger *slog.Logger

	if jsonMode {
		// JSON mode: structured logs only to stdout
		handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: getLogLevel(),
		})
		slogLogger = slog.New(handler)
	} else {
		// Interactive mode: structured logs to file
		logFile, err := getLogFilePath()
		if err != nil {
			return nil, fmt.Errorf("failed to get log file path: %w", err)
		}

		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}

		handler := slog.NewTextHandler(file, &slog.HandlerOptions{
			Level: getLogLevel(),
		})
		slogLogger = slog.New(handler)
	}

	return NewWithSlog(slogLogger, jsonMode), nil
}

// NewWithSlog wraps an existing slog logger
func NewWithSlog(l *slog.Logger, jsonMode bool) *OutputLogger {
	return &OutputLogger{
		Logger:   &loggerImpl{slog: l},
		jsonMode: jsonMode,
	}
}

// JSONMode reports whether output is structured JSON
func (ol *OutputLogger) JSONMode() bool {
	return ol.jsonMode
}

// getLogLevel returns the log level from LOG_LEVEL env var, defaulting to debug
func getLogLevel() slog.Level {
	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "trace":
		return slog.LevelDebug - 4 // Trace is lower than debug
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// getLogFilePath returns the path to the log file
func getLogFilePath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".fitbridge", "fitbridge.log"), nil
}

// Header shows a section header, e.g. the range a read covers
func (ol *OutputLogger) Header(format string, args ...any) {
	if ol.jsonMode {
		ol.Logger.Info("header", "message", fmt.Sprintf(format, args...))
		return
	}
	pterm.Println()
	pterm.DefaultSection.Printf(format, args...)
}

// Table renders rows under header. In JSON mode the rows are logged instead.
func (ol *OutputLogger) Table(header []string, rows [][]string) error {
	if ol.jsonMode {
		ol.Logger.Debug("table", "columns", header, "rows", len(rows))
		return nil
	}
	if len(rows) == 0 {
		pterm.Info.Println("No data in range")
		return nil
	}

	data := pterm.TableData{header}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}

// OpenURL asks the user to visit an authorization URL
func (ol *OutputLogger) OpenURL(url string) error {
	if ol.jsonMode {
		ol.Logger.Info("authorization_required", "url", url)
		return nil
	}
	pterm.Info.Println("Open this URL in a browser to continue signing in to Google Fit:")
	pterm.Println(pterm.NewStyle(pterm.FgCyan, pterm.Underscore).Sprint(url))
	return nil
}

// Progress shows ongoing operations
func (ol *OutputLogger) Progress(format string, args ...any) {
	if ol.jsonMode {
		ol.Logger.Info("progress", "message", fmt.Sprintf(format, args...))
	} else {
		pterm.Info.Printf(format+"\n", args...)
	}
}

// Status shows important state changes
func (ol *OutputLogger) Status(format string, args ...any) {
	if ol.jsonMode {
		ol.Logger.Info("status", "message", fmt.Sprintf(format, args...))
	} else {
		pterm.Success.Printf(format+"\n", args...)
	}
}

// Result shows final results/summaries
func (ol *OutputLogger) Result(format string, args ...any) {
	if ol.jsonMode {
		ol.Logger.Info("result", "message", fmt.Sprintf(format, args...))
	} else {
		pterm.Success.Printf("🎯 "+format+"\n", args...)
	}
}

// Error shows user-facing errors
func (ol *OutputLogger) Error(format string, args ...any) {
	if ol.jsonMode {
		ol.Logger.Error("user_error", "message", fmt.Sprintf(format, args...))
	} else {
		pterm.Error.Printf(format+"\n", args...)
	}
}

// JSON outputs structured data (only in JSON mode)
func (ol *OutputLogger) JSON(data any) error {
	if !ol.jsonMode {
		return nil
	}
	return json.NewEncoder(os.Stdout).Encode(data)
}

// LogAndShowError logs an error with full context and shows a user-friendly message
func (ol *OutputLogger) LogAndShowError(err error, userMsg string, args ...any) {
	ol.Logger.Error("operation_failed", "error", err.Error(), "user_message", fmt.Sprintf(userMsg, args...))
	ol.Error(userMsg, args...)
}

// loggerImpl implements Logger interface
type loggerImpl struct {
	slog *slog.Logger
}

func (l *loggerImpl) Component(name string) Logger {
	return &loggerImpl{slog: l.slog.With("component", name)}
}

func (l *loggerImpl) With(args ...any) Logger {
	return &loggerImpl{slog: l.slog.With(args...)}
}

func (l *loggerImpl) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

func (l *loggerImpl) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

func (l *loggerImpl) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

func (l *loggerImpl) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Logger provides leveled logging with verbose mode support.
type Logger struct {
	verbose bool
	out     io.Writer
	mu      sync.RWMutex
}

var (
	loggerInstance *Logger
	once           sync.Once
)

// GetLogger returns the singleton logger instance.
func GetLogger() *Logger {
	once.Do(func() {
		loggerInstance = &Logger{
			verbose: false,
			out:     os.Stderr,
		}
	})
	return loggerInstance
}

// NewLogger creates a standalone logger writing to out.
// Components that accept an injected logger use this in tests.
func NewLogger(out io.Writer, verbose bool) *Logger {
	if out == nil {
		out = io.Discard
	}
	return &Logger{verbose: verbose, out: out}
}

// SetVerboseMode sets the verbose mode globally.
func SetVerboseMode(verbose bool) {
	GetLogger().SetVerbose(verbose)
}

// SetVerbose sets the verbose mode for this logger instance.
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
}

// SetOutput redirects all levels to w.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w == nil {
		w = io.Discard
	}
	l.out = w
}

// IsVerbose returns whether verbose mode is enabled.
func (l *Logger) IsVerbose() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.verbose
}

// write serializes one line to the output, which may not be safe for
// concurrent use.
func (l *Logger) write(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.out, format, args...)
}

// formatMessage formats a message with optional printf-style arguments.
func formatMessage(msgOrFormat string, args ...interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(msgOrFormat, args...)
	}
	return msgOrFormat
}

// Debug logs a debug message (only shown when verbose=true).
// Can be used with a simple message or printf-style format string with args.
func (l *Logger) Debug(msgOrFormat string, args ...interface{}) {
	if !l.IsVerbose() {
		return
	}
	l.write("%s [DEBUG] %s\n", time.Now().Format("15:04:05"), formatMessage(msgOrFormat, args...))
}

// Info logs an info message (always shown).
func (l *Logger) Info(msgOrFormat string, args ...interface{}) {
	l.write("[INFO] %s\n", formatMessage(msgOrFormat, args...))
}

// Warn logs a warning message (always shown).
func (l *Logger) Warn(msgOrFormat string, args ...interface{}) {
	l.write("[WARN] %s\n", formatMessage(msgOrFormat, args...))
}

// Error logs an error message (always shown).
func (l *Logger) Error(msgOrFormat string, args ...interface{}) {
	l.write("[ERROR] %s\n", formatMessage(msgOrFormat, args...))
}

// Print writes a user-facing line without a level prefix.
func (l *Logger) Print(msgOrFormat string, args ...interface{}) {
	l.write("%s\n", formatMessage(msgOrFormat, args...))
}

// BackgroundLogger writes to a PID-specific file. The dashboard uses it
// because the terminal belongs to the TUI while it runs.
type BackgroundLogger struct {
	logger   *log.Logger
	logFile  *os.File
	enabled  bool
	filePath string
}

// NewBackgroundLoggerWithEnabled creates a background logger with explicit enabled control.
// Pass config.IsBackgroundLoggingEnabled() to honor the logging.background_enabled config.
func NewBackgroundLoggerWithEnabled(enabled bool) (*BackgroundLogger, error) {
	if !enabled {
		return &BackgroundLogger{
			logger:  log.New(io.Discard, "", log.LstdFlags),
			enabled: false,
		}, nil
	}

	logPath := fmt.Sprintf("%s/sylvectl-%d.log", os.TempDir(), os.Getpid())
	return NewBackgroundLoggerWithPath(logPath)
}

// NewBackgroundLoggerWithPath creates a background logger with a custom path.
func NewBackgroundLoggerWithPath(path string) (*BackgroundLogger, error) {
	bl := &BackgroundLogger{
		filePath: path,
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		// Gracefully degrade to io.Discard
		bl.logger = log.New(io.Discard, "", log.LstdFlags)
		bl.enabled = false
		return bl, err
	}

	bl.logFile = file
	bl.logger = log.New(file, "", log.LstdFlags)
	bl.enabled = true
	return bl, nil
}

// Writer returns the destination of the background log, for redirecting a
// Logger into it.
func (bl *BackgroundLogger) Writer() io.Writer {
	if bl.logFile == nil {
		return io.Discard
	}
	return bl.logFile
}

// Printf logs a formatted message.
func (bl *BackgroundLogger) Printf(format string, args ...interface{}) {
	if bl.logger != nil {
		bl.logger.Printf(format, args...)
	}
}

// Close closes the log file.
func (bl *BackgroundLogger) Close() {
	if bl.logFile != nil {
		_ = bl.logFile.Close()
		bl.logFile = nil
	}
	// After close, switch to io.Discard for graceful degradation
	bl.logger = log.New(io.Discard, "", log.LstdFlags)
	bl.enabled = false
}

// GetLogPath returns the log file path.
func (bl *BackgroundLogger) GetLogPath() string {
	return bl.filePath
}

// IsEnabled returns whether background logging is enabled.
func (bl *BackgroundLogger) IsEnabled() bool {
	return bl.enabled
}

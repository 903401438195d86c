// Package plog provides the run-scoped logger for the archiving tools.
// Each run constructs one Logger that mirrors every record to the console
// and to a timestamped log file under the output directory's logs/
// subdirectory. There is no package-level logger state; the instance is
// passed to whoever needs it.
package plog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"arcbatch/pkg/util"
)

// lineHandler is a slog.Handler that renders records as
// "<timestamp> - <LEVEL> - <message> key=value ...", one line per record.
type lineHandler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *lineHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	fmt.Fprintf(&b, "%s,%03d - %s - %s",
		ts.Format("2006-01-02 15:04:05"), ts.Nanosecond()/1e6, levelName(r.Level), r.Message)

	for _, attr := range h.attrs {
		fmt.Fprintf(&b, " %s=%v", attr.Key, attr.Value)
	}
	r.Attrs(func(attr slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%v", attr.Key, attr.Value)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &lineHandler{mu: h.mu, w: h.w, level: h.level, attrs: merged}
}

// WithGroup is accepted but groups are flattened; the line format has no
// nesting to express them.
func (h *lineHandler) WithGroup(string) slog.Handler {
	return h
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARNING"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// Logger writes timestamped log lines to the console and a per-run log file.
type Logger struct {
	sl   *slog.Logger
	file *os.File
	path string
}

// New creates the logs/ subdirectory under outputDir (with parents) and opens
// a fresh log file named "<kind>_log_<YYYY-MM-DD_HH-MM-SS>.txt". With verbose
// false only warnings and errors are emitted; verbose raises the level to
// informational.
func New(outputDir, kind string, verbose bool) (*Logger, error) {
	logsDir := filepath.Join(outputDir, "logs")
	if err := os.MkdirAll(logsDir, util.UserWritableDirPerms); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	name := fmt.Sprintf("%s_log_%s.txt", kind, time.Now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(logsDir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, util.UserWritableFilePerms)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}

	h := &lineHandler{
		mu:    &sync.Mutex{},
		w:     io.MultiWriter(os.Stderr, f),
		level: level,
	}
	l := &Logger{sl: slog.New(h), file: f, path: path}
	l.Info("Log file output to", "path", path)
	return l, nil
}

// NewWithWriter builds a Logger that writes to w only, without a backing
// file. Primarily for tests.
func NewWithWriter(w io.Writer, verbose bool) *Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	h := &lineHandler{mu: &sync.Mutex{}, w: w, level: level}
	return &Logger{sl: slog.New(h)}
}

// Path returns the log file path, or "" when the Logger has no backing file.
func (l *Logger) Path() string {
	return l.path
}

// Info logs an informational message.
func (l *Logger) Info(msg string, args ...any) {
	l.sl.Info(msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.sl.Warn(msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.sl.Error(msg, args...)
}

// Close closes the backing log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

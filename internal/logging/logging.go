package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output and format names accepted in Config.
const (
	OutputStderr = "stderr"
	OutputStdout = "stdout"
	OutputFile   = "file"

	FormatJSON    = "json"
	FormatConsole = "console"
)

// logFilePerm restricts log files to the current user.
const logFilePerm = 0600

// Config describes how a logger is built.
type Config struct {
	Level  string
	Format string
	Output string
	File   string
	Caller bool
}

// LogPathResult is the outcome of NewLoggerWithPath.
type LogPathResult struct {
	Logger zerolog.Logger

	// FilePath is the log file in use when UsingFile is true.
	FilePath  string
	UsingFile bool

	// FallbackUsed reports that file output was requested but stderr is used.
	FallbackUsed   bool
	FallbackReason string

	file *os.File
}

// Close releases the log file, if one was opened.
func (r *LogPathResult) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// NewLogger builds a logger writing to cfg.Output. File errors silently fall
// back to stderr; use NewLoggerWithPath to learn about them.
func NewLogger(cfg Config) zerolog.Logger {
	return NewLoggerWithPath(cfg).Logger
}

// NewLoggerWithPath builds a logger and reports which destination it ended up using.
func NewLoggerWithPath(cfg Config) LogPathResult {
	var result LogPathResult

	var out io.Writer = os.Stderr
	switch strings.ToLower(cfg.Output) {
	case OutputStdout:
		out = os.Stdout
	case OutputFile:
		f, err := openLogFile(cfg.File)
		if err != nil {
			result.FallbackUsed = true
			result.FallbackReason = err.Error()
			break
		}
		out = f
		result.file = f
		result.FilePath = cfg.File
		result.UsingFile = true
	default:
	}

	result.Logger = NewLoggerWriter(cfg, out)
	return result
}

// NewLoggerWriter builds a logger writing to w.
func NewLoggerWriter(cfg Config, w io.Writer) zerolog.Logger {
	if strings.EqualFold(cfg.Format, FormatConsole) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: !isTTY(w)}
	}

	ctx := zerolog.New(w).Level(ParseLevel(cfg.Level)).Hook(TraceHook{}).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// ParseLevel parses a level name, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// ComponentLogger tags every event with the component name.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// FromContext returns the logger stored in ctx, or a disabled logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// PrintLogPathMessage tells the user where logs are going.
func PrintLogPathMessage(w io.Writer, path string) {
	_, _ = fmt.Fprintf(w, "Logging to %s\n", path)
}

// PrintFallbackWarning tells the user file logging was not possible.
func PrintFallbackWarning(w io.Writer, reason string) {
	_, _ = fmt.Fprintf(w, "Warning: could not open log file (%s), logging to stderr\n", reason)
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("no log file configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, logFilePerm)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kingrea/teasaga/internal/config"
)

// Options selects the level and encoding of a Logger.
type Options struct {
	Level  string
	Format string
}

// Logger appends structured lines to .teasaga/logs/teasaga.log so users can
// inspect a demo run after the terminal UI has exited.
type Logger struct {
	file *os.File
	zlog zerolog.Logger

	// base is zlog without the component field; component children derive
	// from it so a line never carries two component keys.
	base      zerolog.Logger
	component string
}

// New creates (or reuses) the log file for the current project directory.
func New(projectDir string, opts Options) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.Dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, "teasaga.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	l := NewWriter(f, opts)
	l.file = f
	return l, nil
}

// NewWriter builds a Logger on top of an arbitrary writer.
func NewWriter(w io.Writer, opts Options) *Logger {
	if strings.EqualFold(strings.TrimSpace(opts.Format), "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	zlog := zerolog.New(w).With().Timestamp().Logger().Level(ParseLevel(opts.Level))
	return &Logger{zlog: zlog, base: zlog}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop(), base: zerolog.Nop()}
}

// ParseLevel maps a config level name to a zerolog level. Unknown names
// fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Component returns a logger tagged with component name. Tagging a logger
// that already carries a component replaces it.
func (l *Logger) Component(name string) *Logger {
	if l == nil {
		return Nop()
	}
	if l.component == name {
		return l
	}
	return &Logger{
		zlog:      l.base.With().Str("component", name).Logger(),
		base:      l.base,
		component: name,
	}
}

// Zerolog exposes the underlying logger for structured events.
func (l *Logger) Zerolog() *zerolog.Logger {
	if l == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return &l.zlog
}

// Printf writes a single info line. It keeps the bridge's Logger contract.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil {
		return
	}
	l.zlog.Info().Msg(strings.TrimRight(fmt.Sprintf(format, args...), "\n"))
}

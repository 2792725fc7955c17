package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logbook is the human readable journey of a session: demos opened, states
// they passed through, failures. The TUI shows its tail.
type Logbook struct {
	path  string
	clock func() time.Time

	mu   sync.Mutex
	last map[string]string
}

// New creates a logbook that writes to the provided path.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure dir: %w", err)
	}
	return &Logbook{
		path:  path,
		clock: func() time.Time { return time.Now().UTC() },
		last:  map[string]string{},
	}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes a single entry to the logbook.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendLocked(level, message)
}

func (l *Logbook) appendLocked(level Level, message string) {
	line := fmt.Sprintf("%s %-5s %s\n",
		l.clock().Format(time.RFC3339),
		string(level),
		strings.TrimSpace(message),
	)
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line)
}

// Transition records that demo reached the state rendered as summary.
// Repeating the previous summary of the same demo writes nothing, so events a
// saga discarded leave no trace.
func (l *Logbook) Transition(demo, summary string) {
	if l == nil {
		return
	}
	summary = strings.TrimSpace(summary)
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.last[demo]; ok && prev == summary {
		return
	}
	l.last[demo] = summary
	l.appendLocked(LevelInfo, fmt.Sprintf("%s · %s", demo, summary))
}

// Forget drops the remembered state of demo so the next Transition is always
// written.
func (l *Logbook) Forget(demo string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	delete(l.last, demo)
	l.mu.Unlock()
}

// Tail returns up to maxLines of the most recent entries together with the
// total number of entries in the file.
func (l *Logbook) Tail(maxLines int) ([]string, int) {
	if l == nil || maxLines <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	var lines []string
	total := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		total++
		lines = append(lines, scanner.Text())
		if len(lines) > maxLines {
			lines = lines[1:]
		}
	}
	if len(lines) == 0 {
		return nil, total
	}
	return lines, total
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}

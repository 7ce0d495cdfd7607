// Package notify provides Notifier implementations: a slog-backed one for
// the CLI and server, and a recorder for tests.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Log writes notices to a slog.Logger at the matching level.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a Log notifier. A nil logger uses slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Notify implements types.Notifier.
func (l *Log) Notify(n types.Notice) {
	level := slog.LevelInfo
	switch n.Level {
	case types.NoticeWarning:
		level = slog.LevelWarn
	case types.NoticeError:
		level = slog.LevelError
	}
	attrs := []any{"resource", n.Resource}
	if n.Err != nil {
		attrs = append(attrs, "error", n.Err)
	}
	l.logger.Log(context.Background(), level, n.Message, attrs...)
}

// Recorder keeps every notice in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []types.Notice
}

// Notify implements types.Notifier.
func (r *Recorder) Notify(n types.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []types.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Notice(nil), r.notices...)
}

// Count returns the number of recorded notices at the given level.
func (r *Recorder) Count(level types.NoticeLevel) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, notice := range r.notices {
		if notice.Level == level {
			n++
		}
	}
	return n
}

// Reset drops all recorded notices.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}

// Multi fans a notice out to several notifiers.
type Multi []types.Notifier

// Notify implements types.Notifier.
func (m Multi) Notify(n types.Notice) {
	for _, target := range m {
		if target != nil {
			target.Notify(n)
		}
	}
}

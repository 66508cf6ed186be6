// Package notify fans scheduler events out to operators.
package notify

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/pkg/logger"
)

// Nop discards every event
type Nop struct{}

func (Nop) Notify(contracts.Event) {}

// Multi delivers each event to every notifier in order
type Multi []contracts.Notifier

func (m Multi) Notify(e contracts.Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(e)
		}
	}
}

// Toggle gates an inner notifier behind a runtime switch (the "sound" toggle)
type Toggle struct {
	inner   contracts.Notifier
	enabled atomic.Bool
}

// NewToggle wraps inner with the given initial state
func NewToggle(inner contracts.Notifier, enabled bool) *Toggle {
	t := &Toggle{inner: inner}
	t.enabled.Store(enabled)
	return t
}

func (t *Toggle) Notify(e contracts.Event) {
	if t.enabled.Load() {
		t.inner.Notify(e)
	}
}

// Enabled reports the current state
func (t *Toggle) Enabled() bool {
	return t.enabled.Load()
}

// Set changes the state and returns the new value
func (t *Toggle) Set(enabled bool) bool {
	t.enabled.Store(enabled)
	return enabled
}

// Flip inverts the state and returns the new value
func (t *Toggle) Flip() bool {
	for {
		old := t.enabled.Load()
		if t.enabled.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Bell writes the terminal bell on every completed channel
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBell creates a bell notifier writing to w (usually os.Stdout)
func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Notify(e contracts.Event) {
	if e.Type != contracts.EventChannelCompleted {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.w.Write([]byte("\a"))
}

// Log records every event as a structured log line
type Log struct {
	logger *logger.Logger
}

// NewLog creates a logging notifier
func NewLog(log *logger.Logger) *Log {
	return &Log{logger: log.Component("notify")}
}

func (l *Log) Notify(e contracts.Event) {
	entry := l.logger.WithFields(map[string]interface{}{
		"event":    string(e.Type),
		"column":   e.Column,
		"accepted": e.Accepted,
	})
	if e.Type == contracts.EventChannelFailed {
		entry.Warn(e.Message)
		return
	}
	entry.Info(e.Message)
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/internal/metrics"
	"github.com/wonny/volscan/pkg/logger"
)

var (
	// ErrUnknownChannel is returned for run-now requests on columns without an active channel
	ErrUnknownChannel = errors.New("no active channel at column")
	// ErrQueueFull is returned when the control queue cannot accept more events
	ErrQueueFull = errors.New("control queue full")
)

type controlKind int

const (
	controlRunNow controlKind = iota
	controlPause
	controlResume
)

type control struct {
	kind   controlKind
	column int
}

// Manager owns the trigger set and runs due channels on a single polling loop
// ⭐ SSOT: 트리거 등록/재등록과 일일 순환은 여기서만
type Manager struct {
	source       contracts.ConfigSource
	runner       contracts.ChannelRunner
	notifier     contracts.Notifier
	metrics      *metrics.Registry
	logger       *logger.Logger
	artifactPath func(time.Time) string
	pollInterval time.Duration
	now          func() time.Time

	reload   chan struct{}
	controls chan control

	mu    sync.RWMutex
	state EngineState
}

// New creates a trigger manager. artifactPath maps a moment to that day's output file.
func New(
	source contracts.ConfigSource,
	runner contracts.ChannelRunner,
	notifier contracts.Notifier,
	registry *metrics.Registry,
	artifactPath func(time.Time) string,
	pollInterval time.Duration,
	log *logger.Logger,
) *Manager {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Manager{
		source:       source,
		runner:       runner,
		notifier:     notifier,
		metrics:      registry,
		logger:       log.Component("scheduler"),
		artifactPath: artifactPath,
		pollInterval: pollInterval,
		now:          time.Now,
		reload:       make(chan struct{}, 1),
		controls:     make(chan control, 16),
		state:        EngineState{Processed: make(map[int]bool)},
	}
}

// Run builds the initial trigger set and polls until ctx is cancelled
func (m *Manager) Run(ctx context.Context) error {
	m.logger.WithField("poll_interval", m.pollInterval.String()).Info("Starting trigger manager")

	m.mu.Lock()
	m.state.ArtifactPath = m.artifactPath(m.now())
	m.mu.Unlock()

	if err := m.Rebuild(ctx, "startup"); err != nil {
		m.logger.WithError(err).Warn("Initial configuration unavailable, waiting for reload")
	}

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Trigger manager stopped")
			return nil
		case <-m.reload:
			m.Rebuild(ctx, "config_changed")
		case c := <-m.controls:
			m.handle(ctx, c)
		case <-ticker.C:
			m.Step(ctx, m.now())
		}
	}
}

// RequestReload queues a configuration reload; pending requests coalesce
func (m *Manager) RequestReload() {
	select {
	case m.reload <- struct{}{}:
	default:
	}
}

// RunNow queues a manual run of the channel at column
func (m *Manager) RunNow(column int) error {
	m.mu.RLock()
	var ok bool
	if m.state.Config != nil {
		var ch contracts.Channel
		ch, ok = m.state.Config.Channels.Lookup(column)
		ok = ok && ch.Active
	}
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownChannel, column)
	}
	return m.enqueue(control{kind: controlRunNow, column: column})
}

// Pause stops firing triggers until Resume
func (m *Manager) Pause() error {
	return m.enqueue(control{kind: controlPause})
}

// Resume re-enables triggers and rebuilds the set
func (m *Manager) Resume() error {
	return m.enqueue(control{kind: controlResume})
}

func (m *Manager) enqueue(c control) error {
	select {
	case m.controls <- c:
		return nil
	default:
		return ErrQueueFull
	}
}

// Snapshot returns a read-only copy of the engine state
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.snapshot()
}

func (m *Manager) handle(ctx context.Context, c control) {
	switch c.kind {
	case controlRunNow:
		m.runManual(ctx, c.column)

	case controlPause:
		m.mu.Lock()
		m.state.Paused = true
		m.mu.Unlock()
		m.logger.Info("Triggers paused")
		m.publish(contracts.Event{Type: contracts.EventPaused, Message: "scheduler paused"})

	case controlResume:
		m.mu.Lock()
		wasPaused := m.state.Paused
		m.state.Paused = false
		m.mu.Unlock()
		if wasPaused {
			m.logger.Info("Triggers resumed")
			m.publish(contracts.Event{Type: contracts.EventResumed, Message: "scheduler resumed"})
		}
		m.Rebuild(ctx, "resume")
	}
}

// Rebuild reloads the configuration and replaces the whole trigger set.
// An unreadable source keeps the previous set.
func (m *Manager) Rebuild(ctx context.Context, cause string) error {
	table, err := m.source.Load(ctx)
	if err != nil {
		m.logger.WithFields(map[string]interface{}{
			"cause":  cause,
			"source": m.source.Path(),
		}).WithError(err).Error("Configuration unreadable, keeping previous triggers")
		return err
	}

	for _, cfgErr := range table.Errors {
		m.logger.WithField("cause", cause).WithError(cfgErr).Warn("Configuration problem")
	}

	now := m.now()
	triggers, errs := buildTriggers(table.Channels, now)
	for _, e := range errs {
		m.logger.WithError(e).Warn("Trigger skipped")
	}

	// clear-then-replace: 이전 트리거는 전부 폐기
	m.mu.Lock()
	m.state.Config = table
	m.state.Triggers = triggers
	m.state.LastRebuild = now
	m.mu.Unlock()

	m.metrics.Rescheduled(cause, len(triggers))
	m.logger.WithFields(map[string]interface{}{
		"cause":    cause,
		"triggers": len(triggers),
		"active":   len(table.Channels.Active()),
		"hash":     table.Hash,
	}).Info("Triggers rebuilt")
	m.publish(contracts.Event{
		Type:    contracts.EventRescheduled,
		Message: fmt.Sprintf("%d triggers scheduled (%s)", len(triggers), cause),
	})

	return nil
}

// Step fires every trigger due at now, earliest first.
// A rollover replaces the trigger set, so the remaining due triggers are dropped.
func (m *Manager) Step(ctx context.Context, now time.Time) {
	m.mu.RLock()
	if m.state.Paused {
		m.mu.RUnlock()
		return
	}
	var due []*Trigger
	for _, t := range m.state.Triggers {
		if t.Due(now) {
			due = append(due, t)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].Next.Equal(due[j].Next) {
			// 같은 시각이면 채널 먼저 (열 순서), 저장은 마지막
			if due[i].Kind != due[j].Kind {
				return due[i].Kind == TriggerChannel
			}
			return due[i].Column < due[j].Column
		}
		return due[i].Next.Before(due[j].Next)
	})

	// 진행 중인 병합은 종료 신호로 중단하지 않음
	runCtx := context.WithoutCancel(ctx)

	for _, t := range due {
		if ctx.Err() != nil {
			return
		}
		if m.fire(runCtx, t, now) {
			return
		}
	}
}

// fire runs one trigger and reports whether the trigger set was replaced
func (m *Manager) fire(ctx context.Context, t *Trigger, now time.Time) (rolled bool) {
	if t.Kind == TriggerSave {
		m.logger.WithField("at", t.At.String()).Info("Save trigger fired")
		m.rollover(ctx, "save", now)
		return true
	}

	m.runChannel(ctx, t.Column, "scheduled", now)

	m.mu.Lock()
	m.state.Processed[t.Column] = true
	t.Advance(now)
	done := m.state.allProcessed()
	m.mu.Unlock()

	if done {
		m.logger.Info("All channels processed for today, waiting for next day")
		m.rollover(ctx, "all_processed", now)
		return true
	}
	return false
}

// rollover starts a new daily cycle: processed cleared, triggers rebuilt.
// The artifact path is resolved per run, so the next day's runs get their own file.
func (m *Manager) rollover(ctx context.Context, cause string, now time.Time) {
	m.mu.Lock()
	m.state.Processed = make(map[int]bool)
	m.state.DayCycle++
	cycle := m.state.DayCycle
	m.mu.Unlock()

	m.metrics.SetDayCycle(cycle)
	m.logger.WithFields(map[string]interface{}{
		"cause":     cause,
		"day_cycle": cycle,
	}).Info("Daily cycle rolled over")
	m.publish(contracts.Event{Type: contracts.EventDayRolled, Message: fmt.Sprintf("day cycle %d", cycle)})

	if err := m.Rebuild(ctx, cause); err != nil {
		// 설정을 읽을 수 없으면 기존 트리거를 다음 날로 넘겨 유지
		m.mu.Lock()
		for _, t := range m.state.Triggers {
			if t.Due(now) {
				t.Advance(now)
			}
		}
		kept := len(m.state.Triggers)
		m.mu.Unlock()
		m.logger.WithField("triggers", kept).Warn("Rollover kept previous triggers")
	}
}

func (m *Manager) runManual(ctx context.Context, column int) {
	m.runChannel(context.WithoutCancel(ctx), column, "manual", m.now())
}

// runChannel executes one channel against the current configuration.
// The artifact is named by the day the run fires on.
// Panics are recovered so a single channel never stops the loop.
func (m *Manager) runChannel(ctx context.Context, column int, trigger string, firedAt time.Time) {
	path := m.artifactPath(firedAt)

	m.mu.Lock()
	table := m.state.Config
	m.state.ArtifactPath = path
	var ch contracts.Channel
	ok := false
	if table != nil {
		ch, ok = table.Channels.Lookup(column)
	}
	if ok {
		m.state.Running = column
	}
	m.mu.Unlock()

	if !ok {
		m.logger.WithField("column", column).Warn("Channel no longer configured, skipping")
		return
	}

	defer func() {
		m.mu.Lock()
		m.state.Running = 0
		m.mu.Unlock()

		if r := recover(); r != nil {
			m.logger.WithFields(map[string]interface{}{
				"column": column,
				"panic":  fmt.Sprint(r),
				"stack":  string(debug.Stack()),
			}).Error("Channel run panicked")
			m.publish(contracts.Event{
				Type:    contracts.EventChannelFailed,
				Column:  column,
				Message: fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	_, err := m.runner.RunChannel(ctx, contracts.RunRequest{
		Channel:      ch,
		Config:       table,
		ArtifactPath: path,
		Trigger:      trigger,
	})
	if err != nil {
		m.logger.WithField("column", column).WithError(err).Warn("Channel run returned error")
	}
}

func (m *Manager) publish(e contracts.Event) {
	if e.Time.IsZero() {
		e.Time = m.now()
	}
	m.notifier.Notify(e)
}

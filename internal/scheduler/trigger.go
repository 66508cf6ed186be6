package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/volscan/internal/contracts"
)

// TriggerKind distinguishes channel triggers from the daily save trigger
type TriggerKind string

const (
	TriggerChannel TriggerKind = "channel"
	TriggerSave    TriggerKind = "save"
)

// parser accepts "S M H dom month dow" (seconds first)
var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Trigger is one pending daily fire time
// ⭐ SSOT: 트리거 = (종류, 열, 시각) + 다음 실행 시각
type Trigger struct {
	Kind     TriggerKind
	Column   int // 0 for the save trigger
	At       contracts.TimeOfDay
	Next     time.Time
	schedule cron.Schedule
}

// newTrigger builds a daily trigger whose first fire is strictly after now
func newTrigger(kind TriggerKind, column int, at contracts.TimeOfDay, now time.Time) (*Trigger, error) {
	spec := CronSpec(at)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
	}
	return &Trigger{
		Kind:     kind,
		Column:   column,
		At:       at,
		Next:     schedule.Next(now),
		schedule: schedule,
	}, nil
}

// CronSpec renders a time of day as a daily second-precision cron expression
func CronSpec(at contracts.TimeOfDay) string {
	return fmt.Sprintf("%d %d %d * * *", at.Second, at.Minute, at.Hour)
}

// Due reports whether the trigger should fire at now
func (t *Trigger) Due(now time.Time) bool {
	return !t.Next.After(now)
}

// Advance moves the trigger to its next occurrence strictly after now
func (t *Trigger) Advance(now time.Time) {
	t.Next = t.schedule.Next(now)
}

func (t *Trigger) String() string {
	if t.Kind == TriggerSave {
		return "save@" + t.At.String()
	}
	return fmt.Sprintf("column %d@%s", t.Column, t.At)
}

// buildTriggers computes one trigger per active channel plus the save trigger.
// Inactive channels never get a trigger.
func buildTriggers(set *contracts.ChannelSet, now time.Time) ([]*Trigger, []error) {
	var (
		triggers []*Trigger
		errs     []error
	)

	for _, ch := range set.Active() {
		t, err := newTrigger(TriggerChannel, ch.Column, ch.TriggerAt, now)
		if err != nil {
			errs = append(errs, &contracts.ConfigError{Column: ch.Column, Field: "trigger time", Value: ch.TriggerAt.String(), Err: err})
			continue
		}
		triggers = append(triggers, t)
	}

	if set.SaveAt != nil {
		t, err := newTrigger(TriggerSave, 0, *set.SaveAt, now)
		if err != nil {
			errs = append(errs, &contracts.ConfigError{Column: -1, Field: "save time", Value: set.SaveAt.String(), Err: err})
		} else {
			triggers = append(triggers, t)
		}
	}

	return triggers, errs
}

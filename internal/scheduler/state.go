package scheduler

import (
	"sort"
	"time"

	"github.com/wonny/volscan/internal/contracts"
)

// Phase is the manager's coarse lifecycle state
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseScheduled Phase = "scheduled"
	PhaseRunning   Phase = "running"
	PhasePaused    Phase = "paused"
)

// EngineState is owned by the Manager and mutated only on the polling loop
type EngineState struct {
	Config       *contracts.ConfigTable
	Triggers     []*Trigger
	Processed    map[int]bool
	ArtifactPath string
	DayCycle     int
	Paused       bool
	Running      int // column of the in-flight channel, 0 when none
	LastRebuild  time.Time
}

// allProcessed reports whether every active channel has run this cycle
func (s *EngineState) allProcessed() bool {
	if s.Config == nil {
		return false
	}
	active := s.Config.Channels.Active()
	if len(active) == 0 {
		return false
	}
	for _, ch := range active {
		if !s.Processed[ch.Column] {
			return false
		}
	}
	return true
}

func (s *EngineState) phase() Phase {
	switch {
	case s.Running != 0:
		return PhaseRunning
	case s.Paused:
		return PhasePaused
	case len(s.Triggers) > 0:
		return PhaseScheduled
	default:
		return PhaseIdle
	}
}

// TriggerInfo is the read-only view of one trigger
type TriggerInfo struct {
	Kind      TriggerKind `json:"kind"`
	Column    int         `json:"column,omitempty"`
	Channel   int         `json:"channel,omitempty"`
	At        string      `json:"at"`
	Next      time.Time   `json:"next"`
	Processed bool        `json:"processed"`
}

// Snapshot is a consistent copy of the engine state for readers (API, CLI)
type Snapshot struct {
	Phase        Phase               `json:"phase"`
	DayCycle     int                 `json:"day_cycle"`
	ArtifactPath string              `json:"artifact_path"`
	ConfigHash   string              `json:"config_hash,omitempty"`
	LoadedAt     time.Time           `json:"loaded_at"`
	LastRebuild  time.Time           `json:"last_rebuild"`
	Running      int                 `json:"running,omitempty"`
	Triggers     []TriggerInfo       `json:"triggers"`
	Channels     []contracts.Channel `json:"channels"`
	ConfigErrors []string            `json:"config_errors,omitempty"`
}

func (s *EngineState) snapshot() Snapshot {
	snap := Snapshot{
		Phase:        s.phase(),
		DayCycle:     s.DayCycle,
		ArtifactPath: s.ArtifactPath,
		LastRebuild:  s.LastRebuild,
		Running:      s.Running,
		Triggers:     make([]TriggerInfo, 0, len(s.Triggers)),
		Channels:     make([]contracts.Channel, 0),
	}

	if s.Config != nil {
		snap.ConfigHash = s.Config.Hash
		snap.LoadedAt = s.Config.LoadedAt
		if s.Config.Channels != nil {
			snap.Channels = append(snap.Channels, s.Config.Channels.Channels...)
		}
		for _, err := range s.Config.Errors {
			snap.ConfigErrors = append(snap.ConfigErrors, err.Error())
		}
	}

	for _, t := range s.Triggers {
		info := TriggerInfo{Kind: t.Kind, At: t.At.String(), Next: t.Next}
		if t.Kind == TriggerChannel {
			info.Column = t.Column
			info.Channel = t.Column - contracts.FirstChannel + 1
			info.Processed = s.Processed[t.Column]
		}
		snap.Triggers = append(snap.Triggers, info)
	}
	sort.SliceStable(snap.Triggers, func(i, j int) bool {
		return snap.Triggers[i].Next.Before(snap.Triggers[j].Next)
	})

	return snap
}

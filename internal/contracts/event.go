package contracts

import "time"

// EventType names an engine event
type EventType string

const (
	EventChannelCompleted EventType = "channel_completed"
	EventChannelFailed    EventType = "channel_failed"
	EventRescheduled      EventType = "rescheduled"
	EventDayRolled        EventType = "day_rolled"
	EventPaused           EventType = "paused"
	EventResumed          EventType = "resumed"
)

// Event is published to notifiers
type Event struct {
	Type     EventType `json:"type"`
	Column   int       `json:"column,omitempty"`
	Accepted int       `json:"accepted,omitempty"`
	Message  string    `json:"message"`
	Time     time.Time `json:"time"`
}

// RunRequest is the input of one channel run
type RunRequest struct {
	Channel      Channel
	Config       *ConfigTable
	ArtifactPath string
	Trigger      string // scheduled, manual
}

// RunRecord is the history entry of one channel run
type RunRecord struct {
	ID           string             `json:"id"`
	Column       int                `json:"column"`
	Trigger      string             `json:"trigger"`
	StartedAt    time.Time          `json:"started_at"`
	FinishedAt   time.Time          `json:"finished_at"`
	Candidates   int                `json:"candidates"`
	Accepted     int                `json:"accepted"`
	Rejected     int                `json:"rejected"`
	Reasons      map[ReasonCode]int `json:"reasons,omitempty"`
	ArtifactPath string             `json:"artifact_path"`
	ReportPath   string             `json:"report_path,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// Success reports whether the run finished without error
func (r *RunRecord) Success() bool {
	return r.Error == ""
}

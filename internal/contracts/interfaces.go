package contracts

import (
	"context"
	"time"
)

// FeedSource provides today's snapshot and split calendar
// ⭐ SSOT: 외부 시세 피드 인터페이스
type FeedSource interface {
	FetchSnapshot(ctx context.Context, asOf time.Time) ([]SymbolRecord, error)
	FetchSplits(ctx context.Context, asOf time.Time) (Splits, error)
}

// ConfigSource loads and parses the configuration table
type ConfigSource interface {
	Load(ctx context.Context) (*ConfigTable, error)
	Path() string
}

// Notifier receives engine events (sound, stream, log)
type Notifier interface {
	Notify(event Event)
}

// ChannelRunner executes one channel trigger end to end
type ChannelRunner interface {
	RunChannel(ctx context.Context, req RunRequest) (*RunRecord, error)
}

package history

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/pkg/config"
	"github.com/wonny/volscan/pkg/database"
	"github.com/wonny/volscan/pkg/logger"
)

func run(column, accepted int, errMsg string, at time.Time) contracts.RunRecord {
	return contracts.RunRecord{
		ID:         uuid.NewString(),
		Column:     column,
		Trigger:    "scheduled",
		StartedAt:  at,
		FinishedAt: at.Add(time.Second),
		Accepted:   accepted,
		Error:      errMsg,
	}
}

func TestRing_Capacity(t *testing.T) {
	ring := NewRing(3)
	base := time.Now()
	for i := 0; i < 5; i++ {
		ring.Add(run(3, i, "", base.Add(time.Duration(i)*time.Minute)))
	}

	latest := ring.Latest(10)
	require.Len(t, latest, 3)
	assert.Equal(t, 2, latest[0].Accepted)
	assert.Equal(t, 4, latest[2].Accepted)

	assert.Len(t, ring.Latest(1), 1)
	assert.Equal(t, 4, ring.Latest(1)[0].Accepted)
}

func TestRing_StatsAndFailed(t *testing.T) {
	ring := NewRing(0)
	base := time.Now()
	ring.Add(run(3, 5, "", base))
	ring.Add(run(3, 0, "feed unavailable", base.Add(time.Minute)))
	ring.Add(run(4, 7, "", base.Add(2*time.Minute)))

	assert.Len(t, ring.Failed(), 1)

	stats := ring.Stats()
	require.Contains(t, stats, 3)
	assert.Equal(t, 2, stats[3].TotalRuns)
	assert.Equal(t, 0.5, stats[3].SuccessRate)
	require.NotNil(t, stats[3].LastFailure)
	assert.Equal(t, base.Add(time.Minute), *stats[3].LastFailure)
	assert.Equal(t, 7, stats[4].LastAccepted)
	assert.Equal(t, 1.0, stats[4].SuccessRate)
}

type failingStore struct{ saves int }

func (s *failingStore) Save(context.Context, *contracts.RunRecord) error {
	s.saves++
	return errors.New("connection refused")
}

func (s *failingStore) Recent(context.Context, int) ([]contracts.RunRecord, error) {
	return nil, errors.New("connection refused")
}

func TestRecorder_StoreFailureFallsBackToMemory(t *testing.T) {
	store := &failingStore{}
	rec := NewRecorder(NewRing(10), store, logger.Nop())
	ctx := context.Background()

	base := time.Now()
	first := run(3, 1, "", base)
	second := run(4, 2, "", base.Add(time.Minute))
	rec.Record(ctx, &first)
	rec.Record(ctx, &second)

	assert.Equal(t, 2, store.saves)
	recent := rec.Recent(ctx, 10)
	require.Len(t, recent, 2)
	assert.Equal(t, 4, recent[0].Column, "newest first")
}

func TestPostgresStore(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db.Pool)
	require.NoError(t, store.EnsureSchema(ctx))

	rec := run(3, 4, "", time.Now().UTC().Truncate(time.Microsecond))
	rec.Reasons = map[contracts.ReasonCode]int{contracts.ReasonMissingData: 2}
	require.NoError(t, store.Save(ctx, &rec))

	recent, err := store.Recent(ctx, 50)
	require.NoError(t, err)

	var found *contracts.RunRecord
	for i := range recent {
		if recent[i].ID == rec.ID {
			found = &recent[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 2, found.Reasons[contracts.ReasonMissingData])
	assert.True(t, rec.StartedAt.Equal(found.StartedAt))
}

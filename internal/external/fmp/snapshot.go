package fmp

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/pkg/redis"
)

// FetchSnapshot returns the exchange's symbols whose quote timestamp falls
// within asOf's UTC day (both ends inclusive)
func (c *Client) FetchSnapshot(ctx context.Context, asOf time.Time) ([]contracts.SymbolRecord, error) {
	key := redis.SnapshotKey(c.exchange, asOf)

	var cached []contracts.SymbolRecord
	if hit, err := c.cache.Get(ctx, key, &cached); err != nil {
		c.logger.WithError(err).Warn("Snapshot cache read failed")
	} else if hit {
		c.logger.WithField("records", len(cached)).Debug("Snapshot served from cache")
		return cached, nil
	}

	var quotes []quoteResponse
	if err := c.httpClient.GetJSON(ctx, c.endpoint("symbol/"+c.exchange, nil), &quotes); err != nil {
		return nil, fmt.Errorf("%w: symbol list %s: %w", contracts.ErrFeedUnavailable, c.exchange, err)
	}

	start, end := DayWindow(asOf)
	records := make([]contracts.SymbolRecord, 0, len(quotes))
	for _, q := range quotes {
		if q.Timestamp < start || q.Timestamp > end {
			continue
		}
		records = append(records, contracts.SymbolRecord{
			Symbol:    q.Symbol,
			Name:      q.Name,
			Price:     q.Price,
			Volume:    q.Volume,
			AvgVolume: q.AvgVolume,
			Timestamp: time.Unix(q.Timestamp, 0).UTC(),
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"exchange": c.exchange,
		"received": len(quotes),
		"today":    len(records),
	}).Info("Symbol snapshot fetched")

	if len(records) > 0 {
		if err := c.cache.Set(ctx, key, records, c.cacheTTL); err != nil {
			c.logger.WithError(err).Warn("Snapshot cache write failed")
		}
	}

	return records, nil
}

// DayWindow returns the unix seconds of 00:00:00 and 23:59:59 of t's UTC day
func DayWindow(t time.Time) (int64, int64) {
	y, m, d := t.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start.Unix(), start.Add(24*time.Hour - time.Second).Unix()
}

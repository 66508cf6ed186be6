package fmp

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/pkg/redis"
)

// FetchSplits returns splits effective on asOf's local date, keyed by base symbol
func (c *Client) FetchSplits(ctx context.Context, asOf time.Time) (contracts.Splits, error) {
	date := asOf.Format("2006-01-02")
	key := redis.SplitsKey(date)

	cached := contracts.Splits{}
	if hit, err := c.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	params := url.Values{}
	params.Set("from", date)
	params.Set("to", date)

	var rows []splitResponse
	if err := c.httpClient.GetJSON(ctx, c.endpoint("stock_split_calendar", params), &rows); err != nil {
		return nil, fmt.Errorf("%w: split calendar %s: %w", contracts.ErrFeedUnavailable, date, err)
	}

	splits := make(contracts.Splits, len(rows))
	for _, r := range rows {
		symbol := BaseSymbol(r.Symbol)
		if symbol == "" {
			continue
		}
		splits[symbol] = contracts.Split{Numerator: r.Numerator, Denominator: r.Denominator}
	}

	c.logger.WithFields(map[string]interface{}{
		"date":   date,
		"splits": len(splits),
	}).Debug("Split calendar fetched")

	if err := c.cache.Set(ctx, key, splits, c.cacheTTL); err != nil {
		c.logger.WithError(err).Warn("Split cache write failed")
	}

	return splits, nil
}

// BaseSymbol strips an exchange suffix ("RELIANCE.NS" -> "RELIANCE")
func BaseSymbol(symbol string) string {
	base, _, _ := strings.Cut(strings.TrimSpace(symbol), ".")
	return base
}

package output

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/internal/workbook"
	"github.com/wonny/volscan/pkg/logger"
)

// Merger writes one channel's accepted symbols into the shared daily artifact
// without disturbing the other channels' columns.
// Merges are serialized by the polling loop; Merger itself holds no lock.
// ⭐ SSOT: 결과 파일 쓰기는 여기서만
type Merger struct {
	releaser Releaser
	grace    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	logger   *logger.Logger
}

// NewMerger creates a merger; grace is waited only after a forced release
func NewMerger(releaser Releaser, grace time.Duration, log *logger.Logger) *Merger {
	if releaser == nil {
		releaser = NopReleaser{}
	}
	return &Merger{
		releaser: releaser,
		grace:    grace,
		sleep:    sleepContext,
		logger:   log.Component("output"),
	}
}

// Merge splices the current configuration header with the existing artifact body,
// replaces the channel's column from the first body row, and writes the artifact.
func (m *Merger) Merge(ctx context.Context, ch contracts.Channel, accepted []string, config contracts.Grid, artifactPath string) error {
	exists, err := workbook.Exists(artifactPath)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", contracts.ErrMerge, artifactPath, err)
	}

	var body contracts.Grid
	if exists {
		existing, err := workbook.Read(artifactPath)
		if err != nil {
			return fmt.Errorf("%w: %w", contracts.ErrMerge, err)
		}
		if len(existing) > contracts.HeaderRows {
			body = existing[contracts.HeaderRows:]
		}
	}

	grid := Splice(config, body, ch.Column, accepted)

	if exists && m.releaser.IsHeld(artifactPath) {
		m.logger.WithField("path", artifactPath).Warn("Artifact held by another process, forcing release")
		if err := m.releaser.Release(ctx, artifactPath); err != nil {
			m.logger.WithError(err).Warn("Forced release failed")
		}
		if err := m.sleep(ctx, m.grace); err != nil {
			return fmt.Errorf("%w: waiting for release: %w", contracts.ErrMerge, err)
		}
	}

	if err := workbook.Write(artifactPath, grid); err != nil {
		return fmt.Errorf("%w: %w", contracts.ErrMerge, err)
	}

	m.logger.WithFields(map[string]interface{}{
		"column":   ch.Column,
		"accepted": len(accepted),
		"rows":     grid.Rows(),
		"path":     artifactPath,
	}).Info("Channel column merged")

	return nil
}

// Splice builds the artifact grid: header rows from config, body rows from body,
// sized to max(config rows, header+len(accepted)), with column col replaced by accepted.
func Splice(config, body contracts.Grid, col int, accepted []string) contracts.Grid {
	rows := contracts.HeaderRows + len(body)
	if r := config.Rows(); r > rows {
		rows = r
	}
	if r := contracts.HeaderRows + len(accepted); r > rows {
		rows = r
	}

	cols := col + 1
	if c := config.Cols(); c > cols {
		cols = c
	}
	if c := body.Cols(); c > cols {
		cols = c
	}

	grid := contracts.Grid{}.Resize(rows, cols)
	for r := 0; r < contracts.HeaderRows && r < len(config); r++ {
		copy(grid[r], config[r])
	}
	for i, row := range body {
		copy(grid[contracts.HeaderRows+i], row)
	}

	for r := contracts.HeaderRows; r < rows; r++ {
		grid[r][col] = ""
	}
	for i, symbol := range accepted {
		grid[contracts.HeaderRows+i][col] = symbol
	}

	return grid
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

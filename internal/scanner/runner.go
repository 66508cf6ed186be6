package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/internal/exclusion"
	"github.com/wonny/volscan/internal/history"
	"github.com/wonny/volscan/internal/metrics"
	"github.com/wonny/volscan/internal/quality"
	"github.com/wonny/volscan/internal/report"
	"github.com/wonny/volscan/internal/selection"
	"github.com/wonny/volscan/pkg/logger"
)

// ExclusionSource builds the exclusion resolver for one run
type ExclusionSource interface {
	Load(ctx context.Context) *exclusion.Resolver
}

// ArtifactMerger writes one channel's column into the daily artifact
type ArtifactMerger interface {
	Merge(ctx context.Context, ch contracts.Channel, accepted []string, config contracts.Grid, artifactPath string) error
}

// Runner executes one channel trigger: feed → screen → merge → report → notify
// ⭐ SSOT: 채널 1회 실행 흐름은 여기서만
type Runner struct {
	feed       contracts.FeedSource
	exclusions ExclusionSource
	pipeline   *selection.Pipeline
	merger     ArtifactMerger
	reports    *report.Writer
	notifier   contracts.Notifier
	history    *history.Recorder
	metrics    *metrics.Registry
	quality    *quality.Gate
	logger     *logger.Logger
	now        func() time.Time
}

// NewRunner creates a channel runner; metrics may be nil
func NewRunner(
	feed contracts.FeedSource,
	exclusions ExclusionSource,
	pipeline *selection.Pipeline,
	merger ArtifactMerger,
	reports *report.Writer,
	notifier contracts.Notifier,
	recorder *history.Recorder,
	registry *metrics.Registry,
	log *logger.Logger,
) *Runner {
	return &Runner{
		feed:       feed,
		exclusions: exclusions,
		pipeline:   pipeline,
		merger:     merger,
		reports:    reports,
		notifier:   notifier,
		history:    recorder,
		metrics:    registry,
		quality:    quality.NewGate(quality.DefaultConfig()),
		logger:     log.Component("scanner"),
		now:        time.Now,
	}
}

// WithQualityGate replaces the default snapshot coverage thresholds
func (r *Runner) WithQualityGate(g *quality.Gate) *Runner {
	r.quality = g
	return r
}

// RunChannel runs one channel end to end. The returned record is always non-nil
// and already stored in history; the error is the first failure, if any.
func (r *Runner) RunChannel(ctx context.Context, req contracts.RunRequest) (*contracts.RunRecord, error) {
	ch := req.Channel
	asOf := r.now()

	rec := &contracts.RunRecord{
		ID:           uuid.NewString(),
		Column:       ch.Column,
		Trigger:      req.Trigger,
		StartedAt:    asOf,
		ArtifactPath: req.ArtifactPath,
	}

	log := r.logger.WithFields(map[string]interface{}{
		"run_id":  rec.ID,
		"column":  ch.Column,
		"channel": ch.Number(),
		"trigger": req.Trigger,
	})
	log.Info("Channel run started")

	err := r.run(ctx, req, asOf, rec, log)
	r.finish(ctx, ch, rec, err, log)
	return rec, err
}

func (r *Runner) run(ctx context.Context, req contracts.RunRequest, asOf time.Time, rec *contracts.RunRecord, log *logger.Logger) error {
	if req.Config == nil {
		return fmt.Errorf("%w: run request without configuration", contracts.ErrConfig)
	}
	ch := req.Channel

	// 분할 정보 실패는 치명적이지 않음 (분할 보정 없이 진행)
	splits, err := r.feed.FetchSplits(ctx, asOf)
	if err != nil {
		r.metrics.FeedFailure("splits")
		log.WithError(err).Warn("Split calendar unavailable, continuing without adjustment")
		splits = contracts.Splits{}
	}

	resolver := r.exclusions.Load(ctx)

	records, err := r.feed.FetchSnapshot(ctx, asOf)
	if err != nil {
		r.metrics.FeedFailure("snapshot")
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	rec.Candidates = len(records)
	if len(records) == 0 {
		// 빈 스냅샷은 기존 결과 열을 지우지 않음
		log.Warn("No symbols in today's snapshot, artifact left untouched")
		return nil
	}

	coverage := r.quality.Check(records)
	r.metrics.ObserveCoverage(coverage.Coverage)
	if !coverage.Passed {
		log.WithFields(map[string]interface{}{
			"score":    coverage.Score,
			"complete": coverage.Complete,
			"coverage": coverage.Coverage,
		}).Warn("Snapshot coverage below threshold")
	}

	result := r.pipeline.Screen(records, ch, splits, resolver)
	rec.Accepted = len(result.Accepted)
	rec.Rejected = len(result.Rejected)
	rec.Reasons = result.CountByReason()

	mergeErr := r.merger.Merge(ctx, ch, result.Accepted, req.Config.Grid, req.ArtifactPath)
	r.metrics.ObserveMerge(mergeErr)

	// 리포트는 병합 실패와 무관하게 기록
	reportPath, reportErr := r.reports.Write(ch, asOf, result.Rejected)
	if reportErr != nil {
		log.WithError(reportErr).Warn("Failed to write exclusion report")
	} else {
		rec.ReportPath = reportPath
	}

	return mergeErr
}

func (r *Runner) finish(ctx context.Context, ch contracts.Channel, rec *contracts.RunRecord, err error, log *logger.Logger) {
	rec.FinishedAt = r.now()
	if err != nil {
		rec.Error = err.Error()
	}

	r.history.Record(ctx, rec)
	r.metrics.ObserveRun(rec)

	fields := map[string]interface{}{
		"candidates": rec.Candidates,
		"accepted":   rec.Accepted,
		"rejected":   rec.Rejected,
		"duration":   rec.FinishedAt.Sub(rec.StartedAt).Seconds(),
	}

	if err != nil {
		log.WithFields(fields).WithError(err).Error("Channel run failed")
		r.notifier.Notify(contracts.Event{
			Type:    contracts.EventChannelFailed,
			Column:  rec.Column,
			Message: err.Error(),
			Time:    rec.FinishedAt,
		})
		return
	}

	log.WithFields(fields).Info("Channel run completed")
	if rec.Candidates == 0 {
		return
	}
	r.notifier.Notify(contracts.Event{
		Type:     contracts.EventChannelCompleted,
		Column:   rec.Column,
		Accepted: rec.Accepted,
		Message:  fmt.Sprintf("channel %d: %d symbols accepted", ch.Number(), rec.Accepted),
		Time:     rec.FinishedAt,
	})
}

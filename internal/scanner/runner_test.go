package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/volscan/internal/channelconfig"
	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/internal/exclusion"
	"github.com/wonny/volscan/internal/history"
	"github.com/wonny/volscan/internal/metrics"
	"github.com/wonny/volscan/internal/output"
	"github.com/wonny/volscan/internal/report"
	"github.com/wonny/volscan/internal/selection"
	"github.com/wonny/volscan/internal/workbook"
	"github.com/wonny/volscan/pkg/logger"
)

type fakeFeed struct {
	records   []contracts.SymbolRecord
	splits    contracts.Splits
	snapErr   error
	splitErr  error
	snapCalls int
}

func (f *fakeFeed) FetchSnapshot(context.Context, time.Time) ([]contracts.SymbolRecord, error) {
	f.snapCalls++
	return f.records, f.snapErr
}

func (f *fakeFeed) FetchSplits(context.Context, time.Time) (contracts.Splits, error) {
	return f.splits, f.splitErr
}

type staticExclusions struct{ resolver *exclusion.Resolver }

func (s staticExclusions) Load(context.Context) *exclusion.Resolver { return s.resolver }

type recorder struct{ events []contracts.Event }

func (r *recorder) Notify(e contracts.Event) { r.events = append(r.events, e) }

type fixture struct {
	runner   *Runner
	feed     *fakeFeed
	events   *recorder
	history  *history.Recorder
	metrics  *metrics.Registry
	reports  string
	artifact string
	table    *contracts.ConfigTable
}

func newFixture(t *testing.T, feed *fakeFeed, resolver *exclusion.Resolver) *fixture {
	t.Helper()
	dir := t.TempDir()
	log := logger.Nop()

	f := &fixture{
		feed:     feed,
		events:   &recorder{},
		history:  history.NewRecorder(history.NewRing(10), nil, log),
		metrics:  metrics.New(),
		reports:  filepath.Join(dir, "Logs"),
		artifact: filepath.Join(dir, "20240603_VOLvsAVGVOL.xlsx"),
		table:    channelconfig.Build(channelconfig.Template("16:00:00", channelconfig.SampleColumn()), time.Now()),
	}
	f.runner = NewRunner(
		feed,
		staticExclusions{resolver},
		selection.NewPipeline(log),
		output.NewMerger(nil, 0, log),
		report.NewWriter(f.reports),
		f.events,
		f.history,
		f.metrics,
		log,
	)
	f.runner.now = func() time.Time { return time.Date(2024, 6, 3, 9, 30, 0, 0, time.Local) }
	return f
}

func (f *fixture) request() contracts.RunRequest {
	ch, _ := f.table.Channels.Lookup(3)
	return contracts.RunRequest{Channel: ch, Config: f.table, ArtifactPath: f.artifact, Trigger: "scheduled"}
}

func num(v float64) *float64 { return &v }

func TestRunChannel_WorkedExample(t *testing.T) {
	feed := &fakeFeed{
		records: []contracts.SymbolRecord{
			{Symbol: "ABCD", Price: num(25), Volume: num(900000), AvgVolume: num(500000)},
			{Symbol: "ZERO", Price: num(0), Volume: num(1000), AvgVolume: num(900)},
			{Symbol: "SPLT", Price: num(100), Volume: num(900000), AvgVolume: num(500000)},
		},
		splits: contracts.Splits{"SPLT": {Numerator: 2, Denominator: 1}},
	}
	f := newFixture(t, feed, exclusion.Empty())

	rec, err := f.runner.RunChannel(context.Background(), f.request())
	require.NoError(t, err)

	assert.True(t, rec.Success())
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 3, rec.Candidates)
	assert.Equal(t, 1, rec.Accepted)
	assert.Equal(t, 2, rec.Rejected)
	assert.Equal(t, 1, rec.Reasons[contracts.ReasonMissingData])
	assert.Equal(t, 1, rec.Reasons[contracts.ReasonPriceRange], "SPLT adjusts to 50, the exclusive max")

	grid, err := workbook.Read(f.artifact)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", grid.Cell(contracts.HeaderRows, 3))

	data, err := os.ReadFile(filepath.Join(f.reports, "20240603", "excluded_symbols_column_1.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Symbol: ZERO, Reason: missing price, volume or average volume")
	assert.Equal(t, rec.ReportPath, filepath.Join(f.reports, "20240603", "excluded_symbols_column_1.txt"))

	require.Len(t, f.events.events, 1)
	assert.Equal(t, contracts.EventChannelCompleted, f.events.events[0].Type)
	assert.Equal(t, 1, f.events.events[0].Accepted)

	assert.Len(t, f.history.Ring().Latest(0), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ChannelRuns.WithLabelValues("3", "success")))
}

func TestRunChannel_FeedUnavailable(t *testing.T) {
	feed := &fakeFeed{snapErr: fmt.Errorf("%w: timeout", contracts.ErrFeedUnavailable)}
	f := newFixture(t, feed, exclusion.Empty())

	rec, err := f.runner.RunChannel(context.Background(), f.request())
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrFeedUnavailable))
	assert.False(t, rec.Success())
	assert.Zero(t, rec.Candidates)

	ok, statErr := workbook.Exists(f.artifact)
	require.NoError(t, statErr)
	assert.False(t, ok, "no artifact written without candidates")

	require.Len(t, f.events.events, 1)
	assert.Equal(t, contracts.EventChannelFailed, f.events.events[0].Type)
	assert.Len(t, f.history.Ring().Failed(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FeedFailures.WithLabelValues("snapshot")))
}

func TestRunChannel_EmptySnapshotKeepsColumn(t *testing.T) {
	feed := &fakeFeed{records: []contracts.SymbolRecord{
		{Symbol: "ABCD", Price: num(25), Volume: num(900000), AvgVolume: num(500000)},
	}}
	f := newFixture(t, feed, exclusion.Empty())
	ctx := context.Background()

	_, err := f.runner.RunChannel(ctx, f.request())
	require.NoError(t, err)

	feed.records = nil
	rec, err := f.runner.RunChannel(ctx, f.request())
	require.NoError(t, err)
	assert.Zero(t, rec.Candidates)

	grid, err := workbook.Read(f.artifact)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABCD"}, grid.Column(3, contracts.HeaderRows))
	assert.Len(t, f.events.events, 1, "empty snapshot is not announced as completed")
}

func TestRunChannel_SplitFailureIsNotFatal(t *testing.T) {
	feed := &fakeFeed{
		records:  []contracts.SymbolRecord{{Symbol: "ABCD", Price: num(25), Volume: num(900000), AvgVolume: num(500000)}},
		splitErr: contracts.ErrFeedUnavailable,
	}
	f := newFixture(t, feed, exclusion.Empty())

	rec, err := f.runner.RunChannel(context.Background(), f.request())
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Accepted)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FeedFailures.WithLabelValues("splits")))
}

func TestRunChannel_MergeFailureStillReports(t *testing.T) {
	feed := &fakeFeed{records: []contracts.SymbolRecord{
		{Symbol: "ZERO", Price: num(0), Volume: num(1), AvgVolume: num(1)},
	}}
	f := newFixture(t, feed, exclusion.Empty())
	require.NoError(t, os.WriteFile(f.artifact, []byte("garbage"), 0o644))

	rec, err := f.runner.RunChannel(context.Background(), f.request())
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrMerge))
	assert.NotEmpty(t, rec.ReportPath)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Merges.WithLabelValues("failure")))
}

func TestRunChannel_ExclusionLists(t *testing.T) {
	feed := &fakeFeed{records: []contracts.SymbolRecord{
		{Symbol: "ABCD", Price: num(25), Volume: num(900000), AvgVolume: num(500000)},
		{Symbol: "EFGH", Price: num(25), Volume: num(900000), AvgVolume: num(500000)},
	}}
	f := newFixture(t, feed, exclusion.NewResolver(nil, []string{"ABCD"}, nil))

	req := f.request()
	req.Channel.UseList1 = true
	rec, err := f.runner.RunChannel(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Reasons[contracts.ReasonList1])

	grid, err := workbook.Read(f.artifact)
	require.NoError(t, err)
	assert.Equal(t, []string{"EFGH"}, grid.Column(3, contracts.HeaderRows))
}

func TestRunChannel_MissingConfig(t *testing.T) {
	f := newFixture(t, &fakeFeed{}, exclusion.Empty())
	req := f.request()
	req.Config = nil

	_, err := f.runner.RunChannel(context.Background(), req)
	assert.True(t, errors.Is(err, contracts.ErrConfig))
	assert.Zero(t, f.feed.snapCalls)
}

package output

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/volscan/internal/channelconfig"
	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/internal/workbook"
	"github.com/wonny/volscan/pkg/logger"
)

type fakeReleaser struct {
	held     bool
	released int
}

func (f *fakeReleaser) IsHeld(string) bool { return f.held }

func (f *fakeReleaser) Release(context.Context, string) error {
	f.released++
	f.held = false
	return nil
}

func configGrid() contracts.Grid {
	a := channelconfig.SampleColumn()
	b := channelconfig.SampleColumn()
	b.Trigger = "10:00:00"
	return channelconfig.Template("16:00:00", a, b)
}

func newTestMerger(r Releaser) (*Merger, *[]time.Duration) {
	var slept []time.Duration
	m := NewMerger(r, 2*time.Second, logger.Nop())
	m.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return m, &slept
}

func TestMerge_NewArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "20240603_VOLvsAVGVOL.xlsx")
	m, slept := newTestMerger(&fakeReleaser{})
	cfg := configGrid()

	ch := contracts.Channel{Column: 3}
	require.NoError(t, m.Merge(context.Background(), ch, []string{"ABCD", "EFGH"}, cfg, path))
	assert.Empty(t, *slept, "no release wait without an existing artifact")

	got, err := workbook.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", got.Cell(18, 3))
	assert.Equal(t, "EFGH", got.Cell(19, 3))
	assert.Equal(t, "09:30:00", got.Cell(contracts.RowTrigger, 3))
	assert.Equal(t, "Min Price", got.Cell(contracts.RowMinPrice, 0))
}

func TestMerge_ChannelsDoNotClobber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.xlsx")
	m, _ := newTestMerger(nil)
	cfg := configGrid()
	ctx := context.Background()

	require.NoError(t, m.Merge(ctx, contracts.Channel{Column: 3}, []string{"A1", "A2", "A3"}, cfg, path))
	first, err := workbook.Read(path)
	require.NoError(t, err)

	require.NoError(t, m.Merge(ctx, contracts.Channel{Column: 4}, []string{"B1"}, cfg, path))
	second, err := workbook.Read(path)
	require.NoError(t, err)

	assert.Equal(t, first.Column(3, contracts.HeaderRows), second.Column(3, contracts.HeaderRows))
	assert.Equal(t, []string{"B1"}, second.Column(4, contracts.HeaderRows))
}

func TestMerge_RerunReplacesOwnColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.xlsx")
	m, _ := newTestMerger(nil)
	cfg := configGrid()
	ctx := context.Background()

	require.NoError(t, m.Merge(ctx, contracts.Channel{Column: 3}, []string{"OLD1", "OLD2", "OLD3"}, cfg, path))
	require.NoError(t, m.Merge(ctx, contracts.Channel{Column: 4}, []string{"KEEP"}, cfg, path))
	require.NoError(t, m.Merge(ctx, contracts.Channel{Column: 3}, []string{"NEW1"}, cfg, path))

	got, err := workbook.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"NEW1"}, got.Column(3, contracts.HeaderRows))
	assert.Equal(t, []string{"KEEP"}, got.Column(4, contracts.HeaderRows))
}

func TestMerge_HeaderFollowsCurrentConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.xlsx")
	m, _ := newTestMerger(nil)
	ctx := context.Background()

	cfg := configGrid()
	require.NoError(t, m.Merge(ctx, contracts.Channel{Column: 3}, []string{"A1"}, cfg, path))

	edited := cfg.Clone()
	edited[contracts.RowMaxPrice][4] = "75"
	require.NoError(t, m.Merge(ctx, contracts.Channel{Column: 4}, []string{"B1"}, edited, path))

	got, err := workbook.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "75", got.Cell(contracts.RowMaxPrice, 4))
	assert.Equal(t, []string{"A1"}, got.Column(3, contracts.HeaderRows))
}

func TestMerge_WidensForNewColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.xlsx")
	m, _ := newTestMerger(nil)

	require.NoError(t, m.Merge(context.Background(), contracts.Channel{Column: 9}, []string{"WIDE"}, configGrid(), path))

	got, err := workbook.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "WIDE", got.Cell(18, 9))
}

func TestMerge_ForcedReleaseWaitsGrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.xlsx")
	cfg := configGrid()
	ctx := context.Background()

	plain, _ := newTestMerger(nil)
	require.NoError(t, plain.Merge(ctx, contracts.Channel{Column: 3}, []string{"A1"}, cfg, path))

	releaser := &fakeReleaser{held: true}
	m, slept := newTestMerger(releaser)
	require.NoError(t, m.Merge(ctx, contracts.Channel{Column: 4}, []string{"B1"}, cfg, path))

	assert.Equal(t, 1, releaser.released)
	assert.Equal(t, []time.Duration{2 * time.Second}, *slept)
}

func TestMerge_UnreadableArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	m, _ := newTestMerger(nil)
	err := m.Merge(context.Background(), contracts.Channel{Column: 3}, []string{"A1"}, configGrid(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrMerge))
}

func TestSplice(t *testing.T) {
	cfg := contracts.Grid{}.Resize(20, 5)
	cfg[0][2] = "16:00"

	body := contracts.Grid{
		{"", "", "", "A1", "B1"},
		{"", "", "", "A2"},
	}

	got := Splice(cfg, body, 4, []string{"X1", "X2", "X3", "X4"})

	assert.Equal(t, contracts.HeaderRows+4, got.Rows(), "extends to fit accepted symbols")
	assert.Equal(t, "16:00", got.Cell(0, 2))
	assert.Equal(t, []string{"A1", "A2"}, got.Column(3, contracts.HeaderRows))
	assert.Equal(t, []string{"X1", "X2", "X3", "X4"}, got.Column(4, contracts.HeaderRows))
}

func TestSplice_EmptyAcceptedClearsColumn(t *testing.T) {
	body := contracts.Grid{{"", "", "", "A1", "B1"}}
	got := Splice(contracts.Grid{}.Resize(18, 5), body, 4, nil)

	assert.Equal(t, contracts.HeaderRows+1, got.Rows())
	assert.Empty(t, got.Column(4, contracts.HeaderRows))
	assert.Equal(t, []string{"A1"}, got.Column(3, contracts.HeaderRows))
}

func TestProcessReleaser(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "artifact.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	r := NewProcessReleaser(nil, logger.Nop())
	assert.False(t, r.IsHeld(path))
	assert.False(t, r.IsHeld(filepath.Join(dir, "missing.xlsx")))
	assert.ErrorIs(t, r.Release(context.Background(), path), ErrNoReleaseCommand)
}

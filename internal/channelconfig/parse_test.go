package channelconfig

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/internal/workbook"
)

func TestParse_SampleChannel(t *testing.T) {
	grid := Template("16:00", SampleColumn())

	set, errs := Parse(grid)
	require.Empty(t, errs)
	require.NotNil(t, set.SaveAt)
	assert.Equal(t, contracts.TimeOfDay{Hour: 16}, *set.SaveAt)
	assert.Equal(t, 1, set.TotalCols)
	require.Len(t, set.Channels, 1)

	ch := set.Channels[0]
	assert.Equal(t, 3, ch.Column)
	assert.True(t, ch.Active)
	assert.Equal(t, contracts.TimeOfDay{Hour: 9, Minute: 30}, ch.TriggerAt)
	assert.Equal(t, contracts.BoundOf(1), ch.Thresholds.Price.Min)
	assert.Equal(t, contracts.BoundOf(50), ch.Thresholds.Price.Max)
	assert.Equal(t, contracts.BoundOf(100000), ch.Thresholds.Volume.Min)
	assert.Equal(t, contracts.BoundOf(5000000), ch.Thresholds.Volume.Max)
	assert.Equal(t, contracts.BoundOf(50000), ch.Thresholds.AvgVolume.Min)
	assert.Equal(t, contracts.BoundOf(4000000), ch.Thresholds.AvgVolume.Max)
	assert.Equal(t, contracts.BoundOf(1.5), ch.Thresholds.MinRatio)
	assert.False(t, ch.UseList1)
	assert.False(t, ch.UseList2)
}

func TestParse_ActiveFlag(t *testing.T) {
	tests := []struct {
		flag string
		want bool
	}{
		{"YES", true},
		{" yes ", true},
		{"Yes", true},
		{"NO", false},
		{"", false},
		{"Y", false},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			spec := SampleColumn()
			spec.Active = tt.flag

			set, _ := Parse(Template("16:00", spec))
			require.Len(t, set.Channels, 1)
			assert.Equal(t, tt.want, set.Channels[0].Active)
			if tt.want {
				assert.Len(t, set.Active(), 1)
			} else {
				assert.Empty(t, set.Active())
			}
		})
	}
}

func TestParse_InvalidTriggerExcludesOnlyThatChannel(t *testing.T) {
	bad := SampleColumn()
	bad.Trigger = "9h30"
	good := SampleColumn()
	good.Trigger = "10:15"

	set, errs := Parse(Template("16:00:00", bad, good))

	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], contracts.ErrConfig))
	var cfgErr *contracts.ConfigError
	require.True(t, errors.As(errs[0], &cfgErr))
	assert.Equal(t, 3, cfgErr.Column)

	require.Len(t, set.Channels, 1)
	assert.Equal(t, 4, set.Channels[0].Column)
	assert.Equal(t, contracts.TimeOfDay{Hour: 10, Minute: 15}, set.Channels[0].TriggerAt)
}

func TestParse_InactiveChannelIgnoresBadCells(t *testing.T) {
	spec := SampleColumn()
	spec.Active = "NO"
	spec.Trigger = ""
	spec.MinPrice = "n/a"

	set, errs := Parse(Template("16:00", spec))
	assert.Empty(t, errs)
	require.Len(t, set.Channels, 1)
	assert.False(t, set.Channels[0].Active)
	assert.Empty(t, set.Active())
}

func TestParse_NonNumericThresholdIsUnset(t *testing.T) {
	spec := SampleColumn()
	spec.MaxPrice = "fifty"
	spec.MinRatio = ""

	set, errs := Parse(Template("16:00", spec))
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.True(t, errors.Is(err, contracts.ErrValueConversion))
	}

	ch := set.Channels[0]
	assert.False(t, ch.Thresholds.Price.Max.Set)
	assert.True(t, ch.Thresholds.Price.Min.Set)
	assert.False(t, ch.Thresholds.MinRatio.Set)
}

func TestParse_InvalidSaveTime(t *testing.T) {
	set, errs := Parse(Template("tomorrow", SampleColumn()))
	require.Len(t, errs, 1)
	assert.Nil(t, set.SaveAt)
	assert.Len(t, set.Active(), 1, "channels survive an invalid save time")
}

func TestParse_ExclusionToggles(t *testing.T) {
	spec := SampleColumn()
	spec.UseList1 = "yes"
	spec.UseList2 = "YES "

	set, _ := Parse(Template("16:00", spec))
	assert.True(t, set.Channels[0].UseList1)
	assert.True(t, set.Channels[0].UseList2)
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    contracts.TimeOfDay
		wantErr bool
	}{
		{"09:30:00", contracts.TimeOfDay{Hour: 9, Minute: 30}, false},
		{"9:30:15", contracts.TimeOfDay{Hour: 9, Minute: 30, Second: 15}, false},
		{"16:00", contracts.TimeOfDay{Hour: 16}, false},
		{" 07:05 ", contracts.TimeOfDay{Hour: 7, Minute: 5}, false},
		{"0.5", contracts.TimeOfDay{Hour: 12}, false},
		{"0.395833333333333", contracts.TimeOfDay{Hour: 9, Minute: 30}, false},
		{"24:00", contracts.TimeOfDay{}, true},
		{"nan", contracts.TimeOfDay{}, true},
		{"", contracts.TimeOfDay{}, true},
		{"1.5", contracts.TimeOfDay{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"100000", 100000, true},
		{"1,000,000", 1000000, true},
		{" 1.5 ", 1.5, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Input File.xlsx")
	require.NoError(t, workbook.Write(path, Template("16:00:00", SampleColumn())))

	src := NewSource(path)
	assert.Equal(t, path, src.Path())

	table, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, table.Errors)
	assert.NotEmpty(t, table.Hash)
	require.Len(t, table.Channels.Active(), 1)
	assert.Equal(t, contracts.BoundOf(1.5), table.Channels.Active()[0].Thresholds.MinRatio)
}

func TestSource_LoadUnreadable(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "nope.xlsx")).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrConfig))
}

func TestHashChangesWithContent(t *testing.T) {
	a := Template("16:00", SampleColumn())
	b := a.Clone()
	b[contracts.RowTrigger][3] = "09:31:00"

	assert.Equal(t, Hash(a), Hash(a.Clone()))
	assert.NotEqual(t, Hash(a), Hash(b))
}

func TestDump(t *testing.T) {
	table := Build(Template("16:00", SampleColumn()), time.Now())

	out, err := Dump(table.Channels)
	require.NoError(t, err)
	assert.Contains(t, string(out), "column: 3")
	assert.Contains(t, string(out), "min_ratio:")
}

package channelconfig

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/volscan/internal/contracts"
)

var errTimeFormat = errors.New("expected HH:MM:SS or HH:MM")

// Parse converts the configuration grid into a ChannelSet.
// Errors are collected per cell; a malformed channel never blocks the others.
// ⭐ SSOT: 설정 워크북 해석은 여기서만
func Parse(grid contracts.Grid) (*contracts.ChannelSet, []error) {
	var errs []error

	set := &contracts.ChannelSet{}
	if cols := grid.Cols(); cols > contracts.FirstChannel {
		set.TotalCols = cols - contracts.FirstChannel
	}

	saveCell := grid.Cell(contracts.RowSaveTime, contracts.ColSaveTime)
	if tod, err := ParseTimeOfDay(saveCell); err != nil {
		errs = append(errs, &contracts.ConfigError{Column: -1, Field: "save time", Value: saveCell, Err: err})
	} else {
		set.SaveAt = &tod
	}

	for col := contracts.FirstChannel; col < grid.Cols(); col++ {
		ch, chErrs := parseChannel(grid, col)
		errs = append(errs, chErrs...)
		if ch != nil {
			set.Channels = append(set.Channels, *ch)
		}
	}

	return set, errs
}

// parseChannel returns nil when an active channel has no usable trigger time.
// Inactive columns are kept (never scheduled) and report no errors.
func parseChannel(grid contracts.Grid, col int) (*contracts.Channel, []error) {
	ch := &contracts.Channel{
		Column:   col,
		Active:   isYes(grid.Cell(contracts.RowActive, col)),
		UseList1: isYes(grid.Cell(contracts.RowUseList1, col)),
		UseList2: isYes(grid.Cell(contracts.RowUseList2, col)),
	}

	var errs []error
	timeCell := grid.Cell(contracts.RowTrigger, col)
	tod, err := ParseTimeOfDay(timeCell)
	if err != nil {
		if !ch.Active {
			return ch, nil
		}
		return nil, []error{&contracts.ConfigError{Column: col, Field: "trigger time", Value: timeCell, Err: err}}
	}
	ch.TriggerAt = tod

	bound := func(row int, field string) contracts.Bound {
		cell := grid.Cell(row, col)
		v, ok := ParseNumber(cell)
		if !ok {
			if ch.Active {
				errs = append(errs, &contracts.ValueConversionError{Column: col, Field: field, Value: cell})
			}
			return contracts.Bound{}
		}
		return contracts.BoundOf(v)
	}

	ch.Thresholds = contracts.Thresholds{
		Price: contracts.Range{
			Min: bound(contracts.RowMinPrice, "min price"),
			Max: bound(contracts.RowMaxPrice, "max price"),
		},
		Volume: contracts.Range{
			Min: bound(contracts.RowMinVolume, "min volume"),
			Max: bound(contracts.RowMaxVolume, "max volume"),
		},
		AvgVolume: contracts.Range{
			Min: bound(contracts.RowMinAvgVol, "min average volume"),
			Max: bound(contracts.RowMaxAvgVol, "max average volume"),
		},
		MinRatio: bound(contracts.RowMinRatio, "min volume / average volume"),
	}

	return ch, errs
}

// ParseTimeOfDay accepts HH:MM:SS, then HH:MM, then a spreadsheet day fraction
func ParseTimeOfDay(s string) (contracts.TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return contracts.TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}

	// 엑셀 시간 셀은 0 이상 1 미만의 일(day) 비율로 저장됨
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f < 1 {
		secs := int(math.Round(f * 86400))
		if secs < 86400 {
			return contracts.TimeOfDay{Hour: secs / 3600, Minute: secs % 3600 / 60, Second: secs % 60}, nil
		}
	}

	return contracts.TimeOfDay{}, errTimeFormat
}

// ParseNumber reads a threshold cell; thousands separators are tolerated
func ParseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func isYes(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "YES")
}

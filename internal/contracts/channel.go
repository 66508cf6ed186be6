package contracts

import (
	"fmt"
	"time"
)

// Configuration table layout (zero-based rows; columns 0-2 are reserved)
const (
	RowSaveTime  = 0
	ColSaveTime  = 2
	RowTrigger   = 1
	RowActive    = 2
	RowMinPrice  = 3
	RowMaxPrice  = 4
	RowMinVolume = 5
	RowMaxVolume = 6
	RowMinAvgVol = 7
	RowMaxAvgVol = 8
	RowMinRatio  = 9
	RowUseList1  = 12
	RowUseList2  = 15
	FirstChannel = 3
	HeaderRows   = 18 // 결과 파일의 고정 헤더 영역
)

// TimeOfDay is a wall-clock time without a date
type TimeOfDay struct {
	Hour   int `json:"hour" yaml:"hour"`
	Minute int `json:"minute" yaml:"minute"`
	Second int `json:"second" yaml:"second"`
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// On returns the instant at this time of day on the date of day, in day's location
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, t.Second, 0, day.Location())
}

// Bound is a threshold that may be unset; an unset bound never rejects
type Bound struct {
	Value float64 `json:"value" yaml:"value"`
	Set   bool    `json:"set" yaml:"set"`
}

// BoundOf returns a set bound
func BoundOf(v float64) Bound {
	return Bound{Value: v, Set: true}
}

// Range is an exclusive interval (min, max)
type Range struct {
	Min Bound `json:"min" yaml:"min"`
	Max Bound `json:"max" yaml:"max"`
}

// Contains reports min < x < max, ignoring unset ends
func (r Range) Contains(x float64) bool {
	if r.Min.Set && !(r.Min.Value < x) {
		return false
	}
	if r.Max.Set && !(x < r.Max.Value) {
		return false
	}
	return true
}

// Thresholds are the numeric conditions of one channel
type Thresholds struct {
	Price     Range `json:"price" yaml:"price"`
	Volume    Range `json:"volume" yaml:"volume"`
	AvgVolume Range `json:"avg_volume" yaml:"avg_volume"`
	MinRatio  Bound `json:"min_ratio" yaml:"min_ratio"` // volume / avgVolume >= MinRatio
}

// Channel is one independently scheduled screening column
// ⭐ SSOT: 채널 = 설정 워크북의 한 열
type Channel struct {
	Column     int        `json:"column" yaml:"column"`
	TriggerAt  TimeOfDay  `json:"trigger_at" yaml:"trigger_at"`
	Active     bool       `json:"active" yaml:"active"`
	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`
	UseList1   bool       `json:"use_list1" yaml:"use_list1"`
	UseList2   bool       `json:"use_list2" yaml:"use_list2"`
}

// Number is the operator-facing channel number (column 3 is channel 1)
func (c Channel) Number() int {
	return c.Column - FirstChannel + 1
}

// ChannelSet is the result of one configuration parse; never mutated after creation
type ChannelSet struct {
	SaveAt    *TimeOfDay `json:"save_at,omitempty" yaml:"save_at,omitempty"`
	Channels  []Channel  `json:"channels" yaml:"channels"`
	TotalCols int        `json:"total_columns" yaml:"total_columns"`
}

// Active returns the channels eligible for scheduling
func (s *ChannelSet) Active() []Channel {
	if s == nil {
		return nil
	}
	active := make([]Channel, 0, len(s.Channels))
	for _, ch := range s.Channels {
		if ch.Active {
			active = append(active, ch)
		}
	}
	return active
}

// Lookup finds a channel by column
func (s *ChannelSet) Lookup(column int) (Channel, bool) {
	if s == nil {
		return Channel{}, false
	}
	for _, ch := range s.Channels {
		if ch.Column == column {
			return ch, true
		}
	}
	return Channel{}, false
}

// ConfigTable bundles the raw grid with its parse result
type ConfigTable struct {
	Grid     Grid
	Channels *ChannelSet
	Errors   []error
	Hash     string
	LoadedAt time.Time
}

// Package quality measures how complete a feed snapshot is before screening.
package quality

import (
	"github.com/wonny/volscan/internal/contracts"
)

// Field names used as coverage keys
const (
	FieldName      = "name"
	FieldPrice     = "price"
	FieldVolume    = "volume"
	FieldAvgVolume = "avg_volume"
)

// Config holds minimum coverage thresholds
type Config struct {
	MinPriceCoverage     float64 `yaml:"min_price_coverage"`      // 0.90
	MinVolumeCoverage    float64 `yaml:"min_volume_coverage"`     // 0.90
	MinAvgVolumeCoverage float64 `yaml:"min_avg_volume_coverage"` // 0.80
}

// DefaultConfig returns the thresholds used when none are configured
func DefaultConfig() Config {
	return Config{
		MinPriceCoverage:     0.90,
		MinVolumeCoverage:    0.90,
		MinAvgVolumeCoverage: 0.80,
	}
}

// Snapshot summarizes field coverage of one feed snapshot
type Snapshot struct {
	TotalSymbols int                `json:"total_symbols"`
	Complete     int                `json:"complete"` // price, volume and avg volume all present
	Coverage     map[string]float64 `json:"coverage"`
	Score        float64            `json:"score"`
	Passed       bool               `json:"passed"`
}

// Gate scores snapshots against Config
// ⭐ SSOT: 스냅샷 품질 검증은 여기서만
type Gate struct {
	config Config
}

// NewGate creates a new coverage gate
func NewGate(config Config) *Gate {
	return &Gate{config: config}
}

// Check measures coverage. A failing snapshot is still screened;
// missing fields reject individual symbols.
func (g *Gate) Check(records []contracts.SymbolRecord) *Snapshot {
	snap := &Snapshot{
		TotalSymbols: len(records),
		Coverage:     make(map[string]float64),
	}
	if len(records) == 0 {
		return snap
	}

	var names, prices, volumes, avgVolumes int
	for _, rec := range records {
		if rec.Name != nil && *rec.Name != "" {
			names++
		}
		hasPrice := present(rec.Price)
		hasVolume := present(rec.Volume)
		hasAvg := present(rec.AvgVolume)
		if hasPrice {
			prices++
		}
		if hasVolume {
			volumes++
		}
		if hasAvg {
			avgVolumes++
		}
		if hasPrice && hasVolume && hasAvg {
			snap.Complete++
		}
	}

	total := float64(len(records))
	snap.Coverage[FieldName] = float64(names) / total
	snap.Coverage[FieldPrice] = float64(prices) / total
	snap.Coverage[FieldVolume] = float64(volumes) / total
	snap.Coverage[FieldAvgVolume] = float64(avgVolumes) / total

	snap.Score = score(snap.Coverage)
	snap.Passed = snap.Coverage[FieldPrice] >= g.config.MinPriceCoverage &&
		snap.Coverage[FieldVolume] >= g.config.MinVolumeCoverage &&
		snap.Coverage[FieldAvgVolume] >= g.config.MinAvgVolumeCoverage

	return snap
}

// score is the weighted average of field coverage
func score(coverage map[string]float64) float64 {
	// 가중치 (합계 = 1.0)
	weights := map[string]float64{
		FieldPrice:     0.35,
		FieldVolume:    0.30,
		FieldAvgVolume: 0.30,
		FieldName:      0.05, // 이름은 제외 단어 검사에만 사용
	}

	s := 0.0
	for key, weight := range weights {
		s += coverage[key] * weight
	}
	return s
}

// present treats zero as missing, like the screening rules do
func present(v *float64) bool {
	return v != nil && *v != 0
}

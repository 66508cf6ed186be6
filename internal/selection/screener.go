package selection

import (
	"strconv"

	"github.com/wonny/volscan/internal/contracts"
	"github.com/wonny/volscan/internal/exclusion"
	"github.com/wonny/volscan/pkg/logger"
)

// Pipeline applies a channel's exclusion rules and numeric filters to a snapshot
// ⭐ SSOT: 채널 필터 순서는 여기서만 정의
type Pipeline struct {
	logger *logger.Logger
}

// NewPipeline creates a new filter pipeline
func NewPipeline(log *logger.Logger) *Pipeline {
	return &Pipeline{logger: log.Component("selection")}
}

// Screen runs every record through the channel's rules.
// Order: name fragment → split adjustment → filters (a)-(e) → list 1 → list 2.
// Accepted symbols keep feed order; every rejection is retained.
func (p *Pipeline) Screen(
	records []contracts.SymbolRecord,
	ch contracts.Channel,
	splits contracts.Splits,
	resolver *exclusion.Resolver,
) *contracts.ScreenResult {
	result := &contracts.ScreenResult{
		Accepted: make([]string, 0),
		Rejected: make([]contracts.Rejection, 0),
	}

	for _, rec := range records {
		verdict := p.verdict(rec, ch, splits, resolver)
		if verdict.Accepted {
			result.Accepted = append(result.Accepted, rec.Symbol)
			continue
		}
		result.Rejected = append(result.Rejected, contracts.Rejection{
			Symbol: rec.Symbol,
			Reason: *verdict.Reason,
		})
	}

	p.logger.WithFields(map[string]interface{}{
		"column":       ch.Column,
		"total_input":  len(records),
		"passed":       len(result.Accepted),
		"filtered_out": len(result.Rejected),
		"filters":      result.CountByReason(),
	}).Info("Screening completed")

	return result
}

// verdict runs the two exclusion phases around the numeric filters:
// name fragments first, symbol lists only for otherwise accepted records.
func (p *Pipeline) verdict(
	rec contracts.SymbolRecord,
	ch contracts.Channel,
	splits contracts.Splits,
	resolver *exclusion.Resolver,
) contracts.Verdict {
	if excluded, reason := resolver.MatchName(rec.Name); excluded {
		return contracts.Verdict{Reason: reason}
	}

	if v := p.Evaluate(rec, ch, splits); !v.Accepted {
		return v
	}

	if excluded, reason := resolver.MatchLists(rec.Symbol, ch); excluded {
		return contracts.Verdict{Reason: reason}
	}

	return contracts.Accept()
}

// Evaluate applies the split adjustment and the numeric filters (a)-(e)
func (p *Pipeline) Evaluate(rec contracts.SymbolRecord, ch contracts.Channel, splits contracts.Splits) contracts.Verdict {
	price := rec.Price
	if split, ok := splits[rec.Symbol]; ok && price != nil {
		adjusted, applied := AdjustForSplit(*price, split)
		if applied {
			p.logger.WithFields(map[string]interface{}{
				"symbol":   rec.Symbol,
				"original": *price,
				"adjusted": adjusted,
			}).Debug("Stock split detected")
			price = &adjusted
		}
	}

	return checkConditions(price, rec.Volume, rec.AvgVolume, ch.Thresholds)
}

// checkConditions evaluates the filters on already split-adjusted values
func checkConditions(price, volume, avgVolume *float64, th contracts.Thresholds) contracts.Verdict {
	// (a) 가격, 거래량, 평균거래량 모두 있어야 함 (0도 결측으로 취급)
	if isMissing(price) || isMissing(volume) || isMissing(avgVolume) {
		return contracts.Reject(contracts.ReasonMissingData, "missing price, volume or average volume")
	}

	// (b) price
	if !th.Price.Contains(*price) {
		return contracts.Reject(contracts.ReasonPriceRange, "price %s outside %s", num(*price), rangeString(th.Price))
	}

	// (c) volume
	if !th.Volume.Contains(*volume) {
		return contracts.Reject(contracts.ReasonVolumeRange, "volume %s outside %s", num(*volume), rangeString(th.Volume))
	}

	// (d) average volume
	if !th.AvgVolume.Contains(*avgVolume) {
		return contracts.Reject(contracts.ReasonAvgVolumeRange, "average volume %s outside %s", num(*avgVolume), rangeString(th.AvgVolume))
	}

	// (e) ratio, inclusive lower bound
	ratio := *volume / *avgVolume
	if th.MinRatio.Set && ratio < th.MinRatio.Value {
		return contracts.Reject(contracts.ReasonRatioTooLow, "volume / average volume %s below %s", num(ratio), num(th.MinRatio.Value))
	}

	return contracts.Accept()
}

func isMissing(v *float64) bool {
	return v == nil || *v == 0
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func rangeString(r contracts.Range) string {
	lo, hi := "-inf", "+inf"
	if r.Min.Set {
		lo = num(r.Min.Value)
	}
	if r.Max.Set {
		hi = num(r.Max.Value)
	}
	return "(" + lo + ", " + hi + ")"
}

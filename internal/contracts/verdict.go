package contracts

import "fmt"

// ReasonCode classifies why a symbol was dropped
type ReasonCode string

const (
	// Filter reasons
	ReasonMissingData    ReasonCode = "missing_data"
	ReasonPriceRange     ReasonCode = "price_out_of_range"
	ReasonVolumeRange    ReasonCode = "volume_out_of_range"
	ReasonAvgVolumeRange ReasonCode = "avg_volume_out_of_range"
	ReasonRatioTooLow    ReasonCode = "ratio_too_low"

	// Exclusion reasons
	ReasonNameFragment ReasonCode = "name_fragment"
	ReasonList1        ReasonCode = "exclusion_list_1"
	ReasonList2        ReasonCode = "exclusion_list_2"
)

// IsExclusion reports whether the code came from an exclusion rule
func (c ReasonCode) IsExclusion() bool {
	switch c {
	case ReasonNameFragment, ReasonList1, ReasonList2:
		return true
	}
	return false
}

// Reason is a rejection code with human-readable detail
type Reason struct {
	Code   ReasonCode `json:"code"`
	Detail string     `json:"detail"`
}

func (r Reason) String() string {
	return r.Detail
}

// Verdict is the accept/reject outcome for one symbol
type Verdict struct {
	Accepted bool    `json:"accepted"`
	Reason   *Reason `json:"reason,omitempty"`
}

// Accept returns an accepting verdict
func Accept() Verdict {
	return Verdict{Accepted: true}
}

// Reject returns a rejecting verdict
func Reject(code ReasonCode, format string, args ...interface{}) Verdict {
	return Verdict{Reason: &Reason{Code: code, Detail: fmt.Sprintf(format, args...)}}
}

// Rejection is a dropped symbol kept for the exclusion report
type Rejection struct {
	Symbol string `json:"symbol"`
	Reason Reason `json:"reason"`
}

// ScreenResult is the outcome of one channel run over a snapshot
type ScreenResult struct {
	Accepted []string    `json:"accepted"`
	Rejected []Rejection `json:"rejected"`
}

// CountByReason tallies rejections per code
func (r *ScreenResult) CountByReason() map[ReasonCode]int {
	counts := make(map[ReasonCode]int)
	for _, rej := range r.Rejected {
		counts[rej.Reason.Code]++
	}
	return counts
}

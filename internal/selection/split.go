package selection

import (
	"github.com/shopspring/decimal"

	"github.com/wonny/volscan/internal/contracts"
)

// AdjustForSplit returns price * denominator / numerator.
// A zero numerator leaves the price untouched (applied=false).
func AdjustForSplit(price float64, split contracts.Split) (adjusted float64, applied bool) {
	if split.Numerator == 0 {
		return price, false
	}

	v := decimal.NewFromFloat(price).
		Mul(decimal.NewFromFloat(split.Denominator)).
		Div(decimal.NewFromFloat(split.Numerator))

	adjusted, _ = v.Float64()
	return adjusted, true
}

// internal/pricing/money.go
package pricing

import "github.com/shopspring/decimal"

// Places is the precision of every stored amount.
const Places = 3

var hundred = decimal.NewFromInt(100)

// Round3 rounds half away from zero to three places. Every aggregation
// step goes through it.
func Round3(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

func LineTotal(unitPrice decimal.Decimal, quantity int64) decimal.Decimal {
	return Round3(unitPrice.Mul(decimal.NewFromInt(quantity)))
}

// Commission is amount * rate / 100, unrounded. Callers sum exact values
// and round once per aggregate.
func Commission(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePercent).Div(hundred)
}

func ValidRate(ratePercent decimal.Decimal) bool {
	return !ratePercent.IsNegative() && ratePercent.LessThanOrEqual(hundred)
}

// internal/pricing/checkout.go
package pricing

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line is one priced cart entry. CampaignID is nil for standalone products.
type Line struct {
	ProductID      uuid.UUID
	CampaignID     *uuid.UUID
	UnitPrice      decimal.Decimal
	Quantity       int64
	CommissionRate decimal.Decimal
}

type LineResult struct {
	Line
	LineTotal  decimal.Decimal
	Commission decimal.Decimal
}

type CampaignTotals struct {
	CampaignID  uuid.UUID
	Revenue     decimal.Decimal
	Commission  decimal.Decimal
	Conversions int64
}

type Totals struct {
	Lines      []LineResult
	Subtotal   decimal.Decimal
	Shipping   decimal.Decimal
	GrandTotal decimal.Decimal
	Commission decimal.Decimal
	// Campaigns is sorted by campaign id.
	Campaigns []CampaignTotals
}

// Quote prices a cart. Commission is only computed when attributed is true.
// Lines without a campaign never earn commission.
func Quote(lines []Line, shippingRate decimal.Decimal, attributed bool) Totals {
	totals := Totals{Lines: make([]LineResult, 0, len(lines))}

	type acc struct {
		revenue     decimal.Decimal
		commission  decimal.Decimal
		conversions int64
	}
	perCampaign := make(map[uuid.UUID]*acc)

	subtotal := decimal.Zero
	commission := decimal.Zero
	for _, l := range lines {
		res := LineResult{Line: l, LineTotal: LineTotal(l.UnitPrice, l.Quantity), Commission: decimal.Zero}
		subtotal = subtotal.Add(res.LineTotal)

		if l.CampaignID != nil {
			a, ok := perCampaign[*l.CampaignID]
			if !ok {
				a = &acc{revenue: decimal.Zero, commission: decimal.Zero}
				perCampaign[*l.CampaignID] = a
			}
			a.revenue = a.revenue.Add(res.LineTotal)
			a.conversions += l.Quantity
			if attributed {
				exact := Commission(res.LineTotal, l.CommissionRate)
				a.commission = a.commission.Add(exact)
				commission = commission.Add(exact)
				res.Commission = Round3(exact)
			}
		}
		totals.Lines = append(totals.Lines, res)
	}

	totals.Subtotal = Round3(subtotal)
	totals.Shipping = Round3(totals.Subtotal.Mul(shippingRate))
	totals.GrandTotal = Round3(totals.Subtotal.Add(totals.Shipping))

	for id, a := range perCampaign {
		ct := CampaignTotals{
			CampaignID:  id,
			Revenue:     Round3(a.revenue),
			Commission:  Round3(a.commission),
			Conversions: a.conversions,
		}
		totals.Campaigns = append(totals.Campaigns, ct)
	}
	// Rounded once over the exact line commissions
	totals.Commission = Round3(commission)

	sort.Slice(totals.Campaigns, func(i, j int) bool {
		return totals.Campaigns[i].CampaignID.String() < totals.Campaigns[j].CampaignID.String()
	})
	return totals
}

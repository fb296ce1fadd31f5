// internal/pricing/pricing_test.go
package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRound3(t *testing.T) {
	assert.True(t, d("5.9997").Round(3).Equal(Round3(d("5.9997"))))
	assert.Equal(t, "6", Round3(d("5.9997")).String())
	assert.Equal(t, "0.001", Round3(d("0.0005")).String())
	assert.Equal(t, "59.997", LineTotal(d("19.999"), 3).String())
}

func TestQuoteSingleCampaignLine(t *testing.T) {
	campaign := uuid.New()
	totals := Quote([]Line{{
		ProductID:      uuid.New(),
		CampaignID:     &campaign,
		UnitPrice:      d("19.999"),
		Quantity:       3,
		CommissionRate: d("10"),
	}}, d("0.05"), true)

	assert.True(t, totals.Subtotal.Equal(d("59.997")))
	assert.True(t, totals.Shipping.Equal(d("3")), totals.Shipping.String())
	assert.True(t, totals.GrandTotal.Equal(d("62.997")))
	assert.True(t, totals.Commission.Equal(d("6")), totals.Commission.String())
	require.Len(t, totals.Campaigns, 1)
	assert.True(t, totals.Campaigns[0].Revenue.Equal(d("59.997")))
	assert.Equal(t, int64(3), totals.Campaigns[0].Conversions)
}

func TestQuoteUnattributedHasNoCommission(t *testing.T) {
	campaign := uuid.New()
	totals := Quote([]Line{{
		ProductID:      uuid.New(),
		CampaignID:     &campaign,
		UnitPrice:      d("10"),
		Quantity:       2,
		CommissionRate: d("15"),
	}}, d("0.05"), false)

	assert.True(t, totals.Commission.IsZero())
	assert.True(t, totals.Lines[0].Commission.IsZero())
	assert.True(t, totals.Campaigns[0].Revenue.Equal(d("20")))
}

func TestQuoteCommissionIndependentOfLineOrder(t *testing.T) {
	c1, c2 := uuid.New(), uuid.New()
	lines := []Line{
		{ProductID: uuid.New(), CampaignID: &c1, UnitPrice: d("0.335"), Quantity: 7, CommissionRate: d("12.5")},
		{ProductID: uuid.New(), CampaignID: &c1, UnitPrice: d("19.999"), Quantity: 1, CommissionRate: d("12.5")},
		{ProductID: uuid.New(), CampaignID: &c2, UnitPrice: d("3.333"), Quantity: 3, CommissionRate: d("7")},
		{ProductID: uuid.New(), UnitPrice: d("5.005"), Quantity: 2},
	}
	forward := Quote(lines, d("0.05"), true)

	reversed := make([]Line, len(lines))
	for i := range lines {
		reversed[len(lines)-1-i] = lines[i]
	}
	backward := Quote(reversed, d("0.05"), true)

	assert.True(t, forward.Commission.Equal(backward.Commission))
	assert.True(t, forward.Subtotal.Equal(backward.Subtotal))
	assert.True(t, forward.GrandTotal.Equal(backward.GrandTotal))
	require.Len(t, forward.Campaigns, 2)
	for i := range forward.Campaigns {
		assert.Equal(t, forward.Campaigns[i].CampaignID, backward.Campaigns[i].CampaignID)
		assert.True(t, forward.Campaigns[i].Commission.Equal(backward.Campaigns[i].Commission))
	}

	// c1: (2.345 + 19.999) * 12.5% = 2.793 ; c2: 9.999 * 7% = 0.69993 -> 0.7
	assert.True(t, forward.Commission.Equal(d("3.493")), forward.Commission.String())
}

func TestQuoteOrderCommissionRoundsOnceAcrossCampaigns(t *testing.T) {
	c1, c2 := uuid.New(), uuid.New()
	totals := Quote([]Line{
		{ProductID: uuid.New(), CampaignID: &c1, UnitPrice: d("1.005"), Quantity: 1, CommissionRate: d("10")},
		{ProductID: uuid.New(), CampaignID: &c2, UnitPrice: d("1.005"), Quantity: 1, CommissionRate: d("10")},
	}, d("0.05"), true)

	// 0.1005 + 0.1005 = 0.201, while each campaign rounds to 0.101
	assert.True(t, totals.Commission.Equal(d("0.201")), totals.Commission.String())
	require.Len(t, totals.Campaigns, 2)
	for _, ct := range totals.Campaigns {
		assert.True(t, ct.Commission.Equal(d("0.101")), ct.Commission.String())
	}
}

func TestValidRate(t *testing.T) {
	assert.True(t, ValidRate(d("0")))
	assert.True(t, ValidRate(d("100")))
	assert.False(t, ValidRate(d("100.001")))
	assert.False(t, ValidRate(d("-1")))
}

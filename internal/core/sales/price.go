package sales

import (
	"github.com/shopspring/decimal"

	"insightmart/internal/core/rules"
	"insightmart/internal/core/staging"
)

var hundred = decimal.NewFromInt(100)

// Pricing carries what Price needs beyond the line itself
type Pricing struct {
	// Discount is the category rate in percent, meaningful only when HasRate
	Discount  decimal.Decimal
	HasRate   bool
	GSTRate   decimal.Decimal
	Precision int32
	SaleSize  rules.Bands
}

// Price computes the derived amounts of one line. Rounding is half away from zero,
// applied once per output column. A missing quantity or price makes every amount zero
func Price(s staging.Sale, p Pricing) (gross, net, gst, total, pct, amount decimal.Decimal, size string) {
	if s.Quantity != nil && s.AvgPrice != nil {
		gross = decimal.NewFromInt(int64(*s.Quantity)).Mul(*s.AvgPrice)
	}
	net = gross
	if s.CouponUsed && p.HasRate {
		net = gross.Mul(decimal.NewFromInt(1).Sub(p.Discount.Div(hundred)))
		pct = p.Discount
	}
	delivery := decimal.Zero
	if s.DeliveryCharges != nil {
		delivery = *s.DeliveryCharges
	}
	gst = net.Mul(p.GSTRate).Div(hundred)
	total = net.Mul(decimal.NewFromInt(1).Add(p.GSTRate.Div(hundred))).Add(delivery)
	amount = gross.Sub(net)

	gross, net, gst = gross.Round(p.Precision), net.Round(p.Precision), gst.Round(p.Precision)
	total, pct, amount = total.Round(p.Precision), pct.Round(p.Precision), amount.Round(p.Precision)
	size = p.SaleSize.Pick(gross.InexactFloat64())
	return
}

package sales

import (
	"time"

	"github.com/shopspring/decimal"

	"insightmart/internal/core/staging"
)

type rateKey struct {
	category string
	month    int
}

// Rates holds the average coupon discount per category, or per category and month
type Rates struct {
	mode DiscountMode
	avg  map[rateKey]decimal.Decimal
}

// NewRates averages DiscountPct over every coupon code of a key with a plain mean.
// Coupons with no rate are ignored; in month mode so are coupons with no month
func NewRates(coupons []staging.Coupon, mode DiscountMode) Rates {
	type acc struct {
		sum decimal.Decimal
		n   int64
	}
	accs := map[rateKey]*acc{}
	for _, c := range coupons {
		if c.DiscountPct == nil {
			continue
		}
		k := rateKey{category: c.ProductCategory}
		if mode == DiscountByCategoryMonth {
			if c.Month == nil {
				continue
			}
			k.month = *c.Month
		}
		a := accs[k]
		if a == nil {
			a = &acc{}
			accs[k] = a
		}
		a.sum = a.sum.Add(*c.DiscountPct)
		a.n++
	}
	r := Rates{mode: mode, avg: make(map[rateKey]decimal.Decimal, len(accs))}
	for k, a := range accs {
		r.avg[k] = a.sum.Div(decimal.NewFromInt(a.n))
	}
	return r
}

// Lookup returns the discount percent for a category on a date.
// Month mode needs the date; a line with no date gets no discount there
func (r Rates) Lookup(category string, date *time.Time) (decimal.Decimal, bool) {
	k := rateKey{category: category}
	if r.mode == DiscountByCategoryMonth {
		if date == nil {
			return decimal.Zero, false
		}
		k.month = int(date.Month())
	}
	d, ok := r.avg[k]
	return d, ok
}

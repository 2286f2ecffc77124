// Package staging casts raw text tables into typed rows.
// Casts never fail a row: a value that cannot be read becomes nil.
// Staging keeps no state and does not deduplicate
package staging

import (
	"strings"
	"time"
)

// DefaultDateLayouts is M/D/YYYY first, then ISO dates
var DefaultDateLayouts = []string{"1/2/2006", time.DateOnly, time.DateTime, time.RFC3339}

// Options controls casting
type Options struct {
	DateLayouts []string
	// Precision is the number of decimal places kept on numerics; nil keeps 2
	Precision *int32
}

// Normalizer stages raw tables
type Normalizer struct {
	layouts []string
	places  int32
}

// New builds a Normalizer; empty options fall back to the defaults
func New(o Options) *Normalizer {
	n := &Normalizer{layouts: o.DateLayouts, places: 2}
	if len(n.layouts) == 0 {
		n.layouts = DefaultDateLayouts
	}
	if o.Precision != nil {
		n.places = *o.Precision
	}
	return n
}

// Stage casts every source
func (n *Normalizer) Stage(raw Raw) Staged {
	return Staged{
		Customers: n.Customers(raw.Customers),
		Sales:     n.Sales(raw.Sales),
		Coupons:   n.Coupons(raw.Coupons),
		Taxes:     n.Taxes(raw.Taxes),
		Spend:     n.Spend(raw.Spend),
	}
}

// Customers stages raw_customers; gender is upper-cased and location title-cased
func (n *Normalizer) Customers(in []RawCustomer) []Customer {
	out := make([]Customer, 0, len(in))
	for _, r := range in {
		out = append(out, Customer{
			CustomerID:   ID(r.CustomerID),
			Gender:       nullable(strings.ToUpper(Text(r.Gender))),
			Location:     nullable(Title(r.Location)),
			TenureMonths: Int(r.TenureMonths),
		})
	}
	return out
}

// Sales stages raw_online_sales
func (n *Normalizer) Sales(in []RawSale) []Sale {
	out := make([]Sale, 0, len(in))
	for _, r := range in {
		status := Text(r.CouponStatus)
		out = append(out, Sale{
			CustomerID:         ID(r.CustomerID),
			TransactionID:      ID(r.TransactionID),
			TransactionDate:    Date(r.TransactionDate, n.layouts),
			ProductSKU:         ID(r.ProductSKU),
			ProductDescription: Text(r.ProductDescription),
			ProductCategory:    Text(r.ProductCategory),
			Quantity:           Int(r.Quantity),
			AvgPrice:           Decimal(r.AvgPrice, n.places),
			DeliveryCharges:    Decimal(r.DeliveryCharges, n.places),
			CouponStatus:       status,
			CouponUsed:         strings.EqualFold(status, "Used"),
		})
	}
	return out
}

// Coupons stages raw_discount_coupon
func (n *Normalizer) Coupons(in []RawCoupon) []Coupon {
	out := make([]Coupon, 0, len(in))
	for _, r := range in {
		out = append(out, Coupon{
			Month:           Month(r.Month),
			ProductCategory: Text(r.ProductCategory),
			CouponCode:      Text(r.CouponCode),
			DiscountPct:     Decimal(strings.TrimSuffix(strings.TrimSpace(r.DiscountPct), "%"), n.places),
		})
	}
	return out
}

// Taxes stages raw_tax_amount with GST as a percentage
func (n *Normalizer) Taxes(in []RawTax) []Tax {
	out := make([]Tax, 0, len(in))
	for _, r := range in {
		out = append(out, Tax{ProductCategory: Text(r.ProductCategory), GSTPct: Percent(r.GST, n.places)})
	}
	return out
}

// Spend stages raw_marketing_spend
func (n *Normalizer) Spend(in []RawSpend) []Spend {
	out := make([]Spend, 0, len(in))
	for _, r := range in {
		out = append(out, Spend{
			Date:    Date(r.Date, n.layouts),
			Offline: Decimal(r.OfflineSpend, n.places),
			Online:  Decimal(r.OnlineSpend, n.places),
		})
	}
	return out
}

// Package sales builds fct_sales incrementally.
// A run selects staged lines past the cursor, prices them, and merges them by key
// into the existing fact rows
package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// Grain decides what one fact row stands for
type Grain string

const (
	// GrainTransaction keys rows by transaction id
	GrainTransaction Grain = "transaction"
	// GrainLine keys rows by transaction id and sku
	GrainLine Grain = "line"
)

// DiscountMode decides how coupon rates are averaged
type DiscountMode string

const (
	// DiscountByCategory averages every coupon of a category
	DiscountByCategory DiscountMode = "category"
	// DiscountByCategoryMonth averages per category and transaction month
	DiscountByCategoryMonth DiscountMode = "category_month"
)

// Fact is a row of fct_sales
type Fact struct {
	Key             string
	TransactionID   string
	CustomerID      string
	TransactionDate *time.Time
	ProductSKU      string
	Quantity        *int
	AvgPrice        *decimal.Decimal
	DeliveryCharges *decimal.Decimal
	CouponStatus    string
	CouponUsed      bool

	Gross          decimal.Decimal
	Net            decimal.Decimal
	GST            decimal.Decimal
	Total          decimal.Decimal
	DiscountPct    decimal.Decimal
	DiscountAmount decimal.Decimal
	SizeCategory   string

	ProcessedAt time.Time
}

// Key returns the merge key of a line under g
func Key(g Grain, transactionID, sku string) string {
	if g == GrainLine {
		return transactionID + "|" + sku
	}
	return transactionID
}

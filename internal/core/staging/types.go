package staging

import (
	"time"

	"github.com/shopspring/decimal"
)

// Raw source rows; every column lands as text

// RawCustomer is a row of raw_customers
type RawCustomer struct {
	CustomerID   string
	Gender       string
	Location     string
	TenureMonths string
}

// RawSale is a row of raw_online_sales
type RawSale struct {
	CustomerID         string
	TransactionID      string
	TransactionDate    string
	ProductSKU         string
	ProductDescription string
	ProductCategory    string
	Quantity           string
	AvgPrice           string
	DeliveryCharges    string
	CouponStatus       string
}

// RawCoupon is a row of raw_discount_coupon
type RawCoupon struct {
	Month           string
	ProductCategory string
	CouponCode      string
	DiscountPct     string
}

// RawTax is a row of raw_tax_amount
type RawTax struct {
	ProductCategory string
	GST             string
}

// RawSpend is a row of raw_marketing_spend
type RawSpend struct {
	Date         string
	OfflineSpend string
	OnlineSpend  string
}

// Raw bundles one load of every batch source
type Raw struct {
	Customers []RawCustomer
	Sales     []RawSale
	Coupons   []RawCoupon
	Taxes     []RawTax
	Spend     []RawSpend
}

// Typed rows; nil means the value was missing or failed to cast

// Customer is a staged customer
type Customer struct {
	CustomerID   string
	Gender       *string
	Location     *string
	TenureMonths *int
}

// Sale is a staged sales line
type Sale struct {
	CustomerID         string
	TransactionID      string
	TransactionDate    *time.Time
	ProductSKU         string
	ProductDescription string
	ProductCategory    string
	Quantity           *int
	AvgPrice           *decimal.Decimal
	DeliveryCharges    *decimal.Decimal
	CouponStatus       string
	CouponUsed         bool
}

// Coupon is a staged discount coupon
type Coupon struct {
	Month           *int
	ProductCategory string
	CouponCode      string
	DiscountPct     *decimal.Decimal
}

// Tax is a staged GST rate, in percent
type Tax struct {
	ProductCategory string
	GSTPct          *decimal.Decimal
}

// Spend is a staged marketing spend day
type Spend struct {
	Date    *time.Time
	Offline *decimal.Decimal
	Online  *decimal.Decimal
}

// Staged bundles every typed source
type Staged struct {
	Customers []Customer
	Sales     []Sale
	Coupons   []Coupon
	Taxes     []Tax
	Spend     []Spend
}

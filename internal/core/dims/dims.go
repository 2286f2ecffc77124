// Package dims builds the customer and product dimensions.
// Both are full rebuilds from staging with no memory of earlier runs
package dims

import (
	"github.com/shopspring/decimal"

	"insightmart/internal/core/rules"
	"insightmart/internal/core/staging"
)

// Customer is a row of dim_customers
type Customer struct {
	CustomerID    string
	Gender        *string
	Location      *string
	TenureMonths  *int
	TenureSegment *string
	TenureYears   *decimal.Decimal
}

// Product is a row of dim_products
type Product struct {
	SKU         string
	Description string
	Category    string
	Group       string
	GSTRate     decimal.Decimal // percent, 0 when the category has no tax row
}

// CustomerOptions tunes BuildCustomers
type CustomerOptions struct {
	Tenure rules.Bands
}

// BuildCustomers keeps one row per customer id; a repeated id takes the later row's values
// but keeps its first position. Blank ids are dropped
func BuildCustomers(in []staging.Customer, o CustomerOptions) []Customer {
	idx := map[string]int{}
	out := make([]Customer, 0, len(in))
	for _, c := range in {
		if c.CustomerID == "" {
			continue
		}
		row := Customer{
			CustomerID:   c.CustomerID,
			Gender:       c.Gender,
			Location:     c.Location,
			TenureMonths: c.TenureMonths,
		}
		if c.TenureMonths != nil {
			seg := o.Tenure.Pick(float64(*c.TenureMonths))
			yrs := decimal.NewFromInt(int64(*c.TenureMonths)).DivRound(decimal.NewFromInt(12), 2)
			row.TenureSegment, row.TenureYears = &seg, &yrs
		}
		if i, ok := idx[c.CustomerID]; ok {
			out[i] = row
			continue
		}
		idx[c.CustomerID] = len(out)
		out = append(out, row)
	}
	return out
}

// ProductOptions tunes BuildProducts
type ProductOptions struct {
	Groups rules.Table
}

// BuildProducts keeps one row per SKU, described by the first staged sale of that SKU
// in source order, and left joins the GST rate by category
func BuildProducts(sales []staging.Sale, taxes []staging.Tax, o ProductOptions) []Product {
	gst := TaxRates(taxes)
	seen := map[string]bool{}
	var out []Product
	for _, s := range sales {
		if s.ProductSKU == "" || seen[s.ProductSKU] {
			continue
		}
		seen[s.ProductSKU] = true
		out = append(out, Product{
			SKU:         s.ProductSKU,
			Description: s.ProductDescription,
			Category:    s.ProductCategory,
			Group:       o.Groups.Match(s.ProductCategory),
			GSTRate:     gst[s.ProductCategory],
		})
	}
	return out
}

// TaxRates maps category to GST percent; the first row of a category wins and null rates are skipped
func TaxRates(taxes []staging.Tax) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(taxes))
	for _, t := range taxes {
		if t.GSTPct == nil {
			continue
		}
		if _, ok := out[t.ProductCategory]; !ok {
			out[t.ProductCategory] = *t.GSTPct
		}
	}
	return out
}

// ProductIndex indexes products by SKU
func ProductIndex(ps []Product) map[string]Product {
	out := make(map[string]Product, len(ps))
	for _, p := range ps {
		out[p.SKU] = p
	}
	return out
}

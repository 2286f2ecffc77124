package repo

import (
	"context"

	"insightmart/internal/core/staging"
	"insightmart/internal/modkit/repokit"
	"insightmart/internal/platform/store"
	"insightmart/internal/services/build/domain"
)

// PGSource reads the raw_* tables landed in the warehouse
type PGSource struct{ db repokit.TxRunner }

// NewPGSource returns a Source over db
func NewPGSource(db repokit.TxRunner) *PGSource { return &PGSource{db: db} }

var _ domain.Source = (*PGSource)(nil)

// Load reads every raw table in one read only transaction
func (s *PGSource) Load(ctx context.Context) (staging.Raw, error) {
	var raw staging.Raw
	err := s.db.Tx(ctx, func(q repokit.Queryer) error {
		if _, err := q.Exec(ctx, `SET TRANSACTION READ ONLY`); err != nil {
			return err
		}
		var err error
		if raw.Customers, err = store.Many(ctx, q, func(r store.Row) (staging.RawCustomer, error) {
			var c staging.RawCustomer
			return c, r.Scan(&c.CustomerID, &c.Gender, &c.Location, &c.TenureMonths)
		}, `SELECT `+coalesce("customer_id", "gender", "location", "tenure_months")+` FROM raw_customers ORDER BY ordinal`); err != nil {
			return err
		}
		if raw.Sales, err = store.Many(ctx, q, func(r store.Row) (staging.RawSale, error) {
			var x staging.RawSale
			return x, r.Scan(&x.CustomerID, &x.TransactionID, &x.TransactionDate, &x.ProductSKU, &x.ProductDescription,
				&x.ProductCategory, &x.Quantity, &x.AvgPrice, &x.DeliveryCharges, &x.CouponStatus)
		}, `SELECT `+coalesce("customer_id", "transaction_id", "transaction_date", "product_sku", "product_description",
			"product_category", "quantity", "avg_price", "delivery_charges", "coupon_status")+` FROM raw_online_sales ORDER BY ordinal`); err != nil {
			return err
		}
		if raw.Coupons, err = store.Many(ctx, q, func(r store.Row) (staging.RawCoupon, error) {
			var x staging.RawCoupon
			return x, r.Scan(&x.Month, &x.ProductCategory, &x.CouponCode, &x.DiscountPct)
		}, `SELECT `+coalesce("month", "product_category", "coupon_code", "discount_pct")+` FROM raw_discount_coupon ORDER BY ordinal`); err != nil {
			return err
		}
		if raw.Taxes, err = store.Many(ctx, q, func(r store.Row) (staging.RawTax, error) {
			var x staging.RawTax
			return x, r.Scan(&x.ProductCategory, &x.GST)
		}, `SELECT `+coalesce("product_category", "gst")+` FROM raw_tax_amount ORDER BY ordinal`); err != nil {
			return err
		}
		raw.Spend, err = store.Many(ctx, q, func(r store.Row) (staging.RawSpend, error) {
			var x staging.RawSpend
			return x, r.Scan(&x.Date, &x.OfflineSpend, &x.OnlineSpend)
		}, `SELECT `+coalesce("spend_date", "offline_spend", "online_spend")+` FROM raw_marketing_spend ORDER BY ordinal`)
		return err
	})
	return raw, err
}

// coalesce renders a select list that maps NULL text to ''
func coalesce(cols ...string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += "COALESCE(" + c + ", '')"
	}
	return out
}

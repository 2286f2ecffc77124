// Package repo provides the Postgres storage of the batch build
package repo

import (
	"context"
	"time"

	"insightmart/internal/core/calendar"
	"insightmart/internal/core/dims"
	"insightmart/internal/core/history"
	"insightmart/internal/core/sales"
	"insightmart/internal/core/segments"
	"insightmart/internal/core/staging"
	"insightmart/internal/modkit/repokit"
	"insightmart/internal/platform/store"
	"insightmart/internal/services/build/domain"

	"github.com/shopspring/decimal"
)

// PG is the Postgres binder
type PG struct{}

// NewPG returns a binder for Postgres
func NewPG() repokit.Binder[domain.StorageRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.StorageRepo { return &queries{q: q} }

type queries struct{ q repokit.Queryer }

var _ domain.StorageRepo = (*queries)(nil)

func (r *queries) Cursor(ctx context.Context, name string) (*time.Time, error) {
	vals, err := store.Many(ctx, r.q, func(row store.Row) (*time.Time, error) {
		var v *time.Time
		return v, row.Scan(&v)
	}, `SELECT value FROM mart_cursors WHERE name = $1`, name)
	if err != nil || len(vals) == 0 {
		return nil, err
	}
	return vals[0], nil
}

func (r *queries) SetCursor(ctx context.Context, name string, v *time.Time) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO mart_cursors (name, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, name, v)
	return err
}

func (r *queries) Facts(ctx context.Context) ([]sales.Fact, error) {
	return store.Many(ctx, r.q, scanFact, `
		SELECT fact_key, transaction_id, customer_id, transaction_date, product_sku,
		       quantity, avg_price, delivery_charges, coupon_status, coupon_used,
		       gross_sales_amount, net_sales_amount, gst_amount, total_amount,
		       discount_percentage, discount_amount, sale_size_category, processed_at
		  FROM fct_sales
		 ORDER BY ordinal`)
}

func scanFact(row store.Row) (sales.Fact, error) {
	var f sales.Fact
	var price, delivery decimal.NullDecimal
	err := row.Scan(
		&f.Key, &f.TransactionID, &f.CustomerID, &f.TransactionDate, &f.ProductSKU,
		&f.Quantity, &price, &delivery, &f.CouponStatus, &f.CouponUsed,
		&f.Gross, &f.Net, &f.GST, &f.Total,
		&f.DiscountPct, &f.DiscountAmount, &f.SizeCategory, &f.ProcessedAt,
	)
	f.AvgPrice, f.DeliveryCharges = decPtr(price), decPtr(delivery)
	return f, err
}

func decPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	return &n.Decimal
}

func (r *queries) OpenHistory(ctx context.Context) ([]history.Record, error) {
	return store.Many(ctx, r.q, func(row store.Row) (history.Record, error) {
		var h history.Record
		err := row.Scan(&h.HistoryID, &h.CustomerID, &h.Gender, &h.Location, &h.TenureMonths, &h.TenureSegment, &h.ValidFrom, &h.ValidTo)
		return h, err
	}, `
		SELECT history_id::text, customer_id, gender, location, tenure_months, tenure_segment, valid_from, valid_to
		  FROM snap_customers
		 WHERE valid_to IS NULL
		 ORDER BY customer_id, valid_from`)
}

func (r *queries) Assignments(ctx context.Context) ([]segments.Assignment, error) {
	return store.Many(ctx, r.q, func(row store.Row) (segments.Assignment, error) {
		var a segments.Assignment
		return a, row.Scan(&a.CustomerID, &a.SegmentID, &a.SegmentName)
	}, `SELECT customer_id, segment_id, segment_name FROM segment_assignments ORDER BY customer_id`)
}

func (r *queries) ReplaceDates(ctx context.Context, days []calendar.Day) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM dim_date`); err != nil {
		return err
	}
	for _, d := range days {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO dim_date (
				date_key, date, year, quarter, month, month_name, day, week, weekday, day_name, is_weekend,
				is_month_start, is_month_end, is_quarter_start, is_quarter_end, is_year_start, is_year_end
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
			d.DateKey, d.Date, d.Year, d.Quarter, d.Month, d.MonthName, d.Day, d.Week, d.Weekday, d.DayName, d.IsWeekend,
			d.IsMonthStart, d.IsMonthEnd, d.IsQuarterStart, d.IsQuarterEnd, d.IsYearStart, d.IsYearEnd,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *queries) ReplaceCustomers(ctx context.Context, cs []dims.Customer) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM dim_customers`); err != nil {
		return err
	}
	for _, c := range cs {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO dim_customers (customer_id, gender, location, tenure_months, tenure_segment, tenure_years)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			c.CustomerID, c.Gender, c.Location, c.TenureMonths, c.TenureSegment, c.TenureYears,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *queries) ReplaceProducts(ctx context.Context, ps []dims.Product) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM dim_products`); err != nil {
		return err
	}
	for _, p := range ps {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO dim_products (product_sku, product_description, product_category, product_group, gst_rate)
			VALUES ($1,$2,$3,$4,$5)`,
			p.SKU, p.Description, p.Category, p.Group, p.GSTRate,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *queries) ReplaceSpend(ctx context.Context, sp []staging.Spend) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stg_marketing_spend`); err != nil {
		return err
	}
	for _, s := range sp {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO stg_marketing_spend (spend_date, offline_spend, online_spend) VALUES ($1,$2,$3)`,
			s.Date, s.Offline, s.Online,
		); err != nil {
			return err
		}
	}
	return nil
}

// UpsertFacts replaces existing keys in place; ordinal keeps first-insert order
func (r *queries) UpsertFacts(ctx context.Context, batch []sales.Fact) error {
	for _, f := range batch {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO fct_sales (
				fact_key, transaction_id, customer_id, transaction_date, product_sku,
				quantity, avg_price, delivery_charges, coupon_status, coupon_used,
				gross_sales_amount, net_sales_amount, gst_amount, total_amount,
				discount_percentage, discount_amount, sale_size_category, processed_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
			ON CONFLICT (fact_key) DO UPDATE SET
				transaction_id      = EXCLUDED.transaction_id,
				customer_id         = EXCLUDED.customer_id,
				transaction_date    = EXCLUDED.transaction_date,
				product_sku         = EXCLUDED.product_sku,
				quantity            = EXCLUDED.quantity,
				avg_price           = EXCLUDED.avg_price,
				delivery_charges    = EXCLUDED.delivery_charges,
				coupon_status       = EXCLUDED.coupon_status,
				coupon_used         = EXCLUDED.coupon_used,
				gross_sales_amount  = EXCLUDED.gross_sales_amount,
				net_sales_amount    = EXCLUDED.net_sales_amount,
				gst_amount          = EXCLUDED.gst_amount,
				total_amount        = EXCLUDED.total_amount,
				discount_percentage = EXCLUDED.discount_percentage,
				discount_amount     = EXCLUDED.discount_amount,
				sale_size_category  = EXCLUDED.sale_size_category,
				processed_at        = EXCLUDED.processed_at`,
			f.Key, f.TransactionID, f.CustomerID, f.TransactionDate, f.ProductSKU,
			f.Quantity, f.AvgPrice, f.DeliveryCharges, f.CouponStatus, f.CouponUsed,
			f.Gross, f.Net, f.GST, f.Total,
			f.DiscountPct, f.DiscountAmount, f.SizeCategory, f.ProcessedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *queries) ApplyHistory(ctx context.Context, ch history.Change) error {
	for _, c := range ch.Close {
		if err := store.ExecOne(ctx, r.q, `
			UPDATE snap_customers SET valid_to = $2 WHERE history_id = $1::uuid AND valid_to IS NULL`,
			c.HistoryID, c.ValidTo,
		); err != nil {
			return err
		}
	}
	for _, o := range ch.Open {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO snap_customers (history_id, customer_id, gender, location, tenure_months, tenure_segment, valid_from, valid_to)
			VALUES ($1::uuid,$2,$3,$4,$5,$6,$7,NULL)`,
			o.HistoryID, o.CustomerID, o.Gender, o.Location, o.TenureMonths, o.TenureSegment, o.ValidFrom,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *queries) ReplaceSegments(ctx context.Context, fs []segments.Fact) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM fct_customer_segments`); err != nil {
		return err
	}
	for _, f := range fs {
		if _, err := r.q.Exec(ctx, `
			INSERT INTO fct_customer_segments (
				customer_id, segment_id, segment_name, location, gender, customer_tenure_months,
				total_orders, total_quantity, total_revenue, first_purchase_date, last_purchase_date,
				days_since_last_purchase, avg_order_value, customer_lifetime_days, daily_revenue_rate,
				activity_status, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
			f.CustomerID, f.SegmentID, f.SegmentName, f.Location, f.Gender, f.TenureMonths,
			f.TotalOrders, f.TotalQuantity, f.TotalRevenue, f.FirstPurchase, f.LastPurchase,
			f.DaysSinceLastPurchase, f.AvgOrderValue, f.LifetimeDays, f.DailyRevenueRate,
			f.ActivityStatus, f.UpdatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

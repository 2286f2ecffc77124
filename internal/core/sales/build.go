package sales

import (
	"errors"
	"time"

	"insightmart/internal/core/dims"
	"insightmart/internal/core/rules"
	"insightmart/internal/core/staging"
	perr "insightmart/internal/platform/errors"
	ptime "insightmart/internal/platform/time"
)

var (
	// ErrMissingWatermarkReference means a cursor exists but fct_sales is empty,
	// so the cursor no longer describes the table
	ErrMissingWatermarkReference = perr.New(perr.ErrorCodeState, "sales: cursor is set but fct_sales is empty")

	// ErrCursorMissing means fct_sales has rows but no cursor was persisted; rerun with reseed
	ErrCursorMissing = perr.New(perr.ErrorCodeState, "sales: fct_sales has rows but no cursor; reseed to derive it")
)

// Options tunes a build
type Options struct {
	Grain        Grain
	DiscountMode DiscountMode
	Precision    int32
	SaleSize     rules.Bands
}

// State summarizes the fact table the cursor refers to
type State struct {
	Rows    int
	MaxDate *time.Time
}

// StateOf derives State from materialized rows
func StateOf(facts []Fact) State {
	s := State{Rows: len(facts)}
	for _, f := range facts {
		s.MaxDate = ptime.Max(s.MaxDate, f.TransactionDate)
	}
	return s
}

// Boundary checks the cursor against the table and returns the selection boundary.
// A nil boundary means everything is selected
func Boundary(cursor *time.Time, st State, reseed bool) (*time.Time, error) {
	switch {
	case cursor != nil && st.Rows == 0:
		return nil, ErrMissingWatermarkReference
	case cursor == nil && st.Rows > 0:
		if !reseed {
			return nil, ErrCursorMissing
		}
		return st.MaxDate, nil
	default:
		return cursor, nil
	}
}

// Select keeps lines dated strictly after boundary; with no boundary it keeps every line,
// including undated ones
func Select(lines []staging.Sale, boundary *time.Time) []staging.Sale {
	if boundary == nil {
		return append([]staging.Sale(nil), lines...)
	}
	var out []staging.Sale
	for _, l := range lines {
		if l.TransactionDate != nil && l.TransactionDate.After(*boundary) {
			out = append(out, l)
		}
	}
	return out
}

// Input is one incremental build
type Input struct {
	Lines    []staging.Sale
	Coupons  []staging.Coupon
	Products []dims.Product
	Cursor   *time.Time
	State    State
	Reseed   bool
	Now      time.Time
}

// Result is what a build produces; Cursor is unchanged when nothing was selected
type Result struct {
	Batch    []Fact
	Selected int
	Cursor   *time.Time
}

// Build prices every selected line and collapses the batch by key
func Build(in Input, o Options) (Result, error) {
	boundary, err := Boundary(in.Cursor, in.State, in.Reseed)
	if err != nil {
		return Result{}, err
	}
	if o.Grain == "" {
		o.Grain = GrainTransaction
	}
	if o.Grain != GrainTransaction && o.Grain != GrainLine {
		return Result{}, perr.InvalidArgf("sales: unknown grain %q", o.Grain)
	}

	lines := Select(in.Lines, boundary)
	rates := NewRates(in.Coupons, o.DiscountMode)
	products := dims.ProductIndex(in.Products)

	res := Result{Selected: len(lines), Cursor: boundary}
	batch := make([]Fact, 0, len(lines))
	for _, l := range lines {
		rate, ok := rates.Lookup(l.ProductCategory, l.TransactionDate)
		gross, net, gst, total, pct, amount, size := Price(l, Pricing{
			Discount:  rate,
			HasRate:   ok,
			GSTRate:   products[l.ProductSKU].GSTRate,
			Precision: o.Precision,
			SaleSize:  o.SaleSize,
		})
		batch = append(batch, Fact{
			Key:             Key(o.Grain, l.TransactionID, l.ProductSKU),
			TransactionID:   l.TransactionID,
			CustomerID:      l.CustomerID,
			TransactionDate: l.TransactionDate,
			ProductSKU:      l.ProductSKU,
			Quantity:        l.Quantity,
			AvgPrice:        l.AvgPrice,
			DeliveryCharges: l.DeliveryCharges,
			CouponStatus:    l.CouponStatus,
			CouponUsed:      l.CouponUsed,
			Gross:           gross,
			Net:             net,
			GST:             gst,
			Total:           total,
			DiscountPct:     pct,
			DiscountAmount:  amount,
			SizeCategory:    size,
			ProcessedAt:     in.Now,
		})
		res.Cursor = ptime.Max(res.Cursor, l.TransactionDate)
	}
	res.Batch = Collapse(batch)
	return res, nil
}

// Collapse keeps one fact per key: the last one wins, at the position of the first
func Collapse(batch []Fact) []Fact {
	idx := make(map[string]int, len(batch))
	out := make([]Fact, 0, len(batch))
	for _, f := range batch {
		if i, ok := idx[f.Key]; ok {
			out[i] = f
			continue
		}
		idx[f.Key] = len(out)
		out = append(out, f)
	}
	return out
}

// Merge replaces existing rows whose key is in batch and appends the new keys
func Merge(existing, batch []Fact) []Fact {
	if len(batch) == 0 {
		return existing
	}
	incoming := make(map[string]Fact, len(batch))
	for _, f := range batch {
		incoming[f.Key] = f
	}
	out := make([]Fact, 0, len(existing)+len(batch))
	for _, f := range existing {
		if nf, ok := incoming[f.Key]; ok {
			out = append(out, nf)
			delete(incoming, f.Key)
			continue
		}
		out = append(out, f)
	}
	for _, f := range batch {
		if _, ok := incoming[f.Key]; ok {
			out = append(out, f)
			delete(incoming, f.Key)
		}
	}
	return out
}

// IsStructural reports whether err is a cursor error that must abort the run
func IsStructural(err error) bool {
	return errors.Is(err, ErrMissingWatermarkReference) || errors.Is(err, ErrCursorMissing)
}

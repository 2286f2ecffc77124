package sales

import (
	"reflect"
	"testing"
	"time"

	"insightmart/internal/core/dims"
	"insightmart/internal/core/rules"
	"insightmart/internal/core/staging"
	perr "insightmart/internal/platform/errors"
	"insightmart/internal/platform/testkit"

	"github.com/shopspring/decimal"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func opts() Options {
	return Options{Grain: GrainTransaction, DiscountMode: DiscountByCategory, Precision: 2, SaleSize: rules.SaleSize}
}

func line(tx string, date *time.Time, qty int, price string, used bool) staging.Sale {
	status := "Not Used"
	if used {
		status = "Used"
	}
	return staging.Sale{
		CustomerID: "C1", TransactionID: tx, TransactionDate: date, ProductSKU: "SKU1",
		ProductCategory: "Apparel", Quantity: testkit.Ptr(qty), AvgPrice: dec(price),
		DeliveryCharges: dec("6.5"), CouponStatus: status, CouponUsed: used,
	}
}

var (
	apparel10 = []staging.Coupon{{ProductCategory: "Apparel", CouponCode: "SALE10", DiscountPct: dec("10")}}
	taxed10   = []dims.Product{{SKU: "SKU1", Category: "Apparel", GSTRate: decimal.NewFromInt(10)}}
	now       = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
)

func eq(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s = %s want %s", name, got, want)
	}
}

func TestDiscountedLine(t *testing.T) {
	res, err := Build(Input{
		Lines:    []staging.Sale{line("T1", testkit.DatePtr(2019, 1, 1), 3, "100", true)},
		Coupons:  apparel10,
		Products: taxed10,
		Now:      now,
	}, opts())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	f := res.Batch[0]
	eq(t, "gross", f.Gross, "300")
	eq(t, "net", f.Net, "270")
	eq(t, "gst", f.GST, "27")
	eq(t, "total", f.Total, "303.5")
	eq(t, "discount pct", f.DiscountPct, "10")
	eq(t, "discount amount", f.DiscountAmount, "30")
	if f.SizeCategory != "Large" || f.ProcessedAt != now || f.Key != "T1" {
		t.Fatalf("fact = %+v", f)
	}
}

func TestNoDiscountWhenCouponNotUsed(t *testing.T) {
	res, _ := Build(Input{
		Lines:    []staging.Sale{line("T1", testkit.DatePtr(2019, 1, 1), 3, "100", false)},
		Coupons:  apparel10,
		Products: taxed10,
	}, opts())
	f := res.Batch[0]
	eq(t, "net", f.Net, "300")
	eq(t, "gross", f.Gross, "300")
	eq(t, "discount amount", f.DiscountAmount, "0")
	eq(t, "discount pct", f.DiscountPct, "0")
	eq(t, "total", f.Total, "336.5")
}

func TestNoRateAndUnmatchedProduct(t *testing.T) {
	l := line("T1", testkit.DatePtr(2019, 1, 1), 1, "20", true)
	l.ProductCategory, l.ProductSKU = "Waze", "UNKNOWN"
	res, _ := Build(Input{Lines: []staging.Sale{l}, Coupons: apparel10, Products: taxed10}, opts())
	f := res.Batch[0]
	eq(t, "net", f.Net, "20")
	eq(t, "gst", f.GST, "0")
	eq(t, "total", f.Total, "26.5")
	if f.SizeCategory != "Small" {
		t.Fatalf("size = %s", f.SizeCategory)
	}
}

func TestNullInputsDegradeToZero(t *testing.T) {
	l := line("T1", nil, 1, "20", true)
	l.Quantity, l.DeliveryCharges = nil, nil
	res, err := Build(Input{Lines: []staging.Sale{l}, Coupons: apparel10, Products: taxed10}, opts())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	f := res.Batch[0]
	eq(t, "gross", f.Gross, "0")
	eq(t, "total", f.Total, "0")
	if res.Cursor != nil {
		t.Fatalf("undated lines must not move the cursor")
	}
}

func TestAveragedRatesAndMonthMode(t *testing.T) {
	coupons := []staging.Coupon{
		{Month: testkit.Ptr(1), ProductCategory: "Apparel", DiscountPct: dec("10")},
		{Month: testkit.Ptr(2), ProductCategory: "Apparel", DiscountPct: dec("20")},
		{Month: testkit.Ptr(2), ProductCategory: "Apparel", DiscountPct: nil},
	}
	r := NewRates(coupons, DiscountByCategory)
	if d, ok := r.Lookup("Apparel", nil); !ok || !d.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("category avg = %v %v", d, ok)
	}
	m := NewRates(coupons, DiscountByCategoryMonth)
	if d, ok := m.Lookup("Apparel", testkit.DatePtr(2019, 2, 9)); !ok || !d.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("month avg = %v %v", d, ok)
	}
	if _, ok := m.Lookup("Apparel", testkit.DatePtr(2019, 3, 9)); ok {
		t.Fatalf("march has no coupon")
	}
	if _, ok := m.Lookup("Apparel", nil); ok {
		t.Fatalf("undated line has no month rate")
	}
}

func TestBoundary(t *testing.T) {
	d1 := testkit.DatePtr(2019, 1, 1)
	cases := []struct {
		name   string
		cursor *time.Time
		st     State
		reseed bool
		want   *time.Time
		err    error
	}{
		{"first run", nil, State{}, false, nil, nil},
		{"steady", d1, State{Rows: 3, MaxDate: d1}, false, d1, nil},
		{"table wiped", d1, State{}, false, nil, ErrMissingWatermarkReference},
		{"cursor lost", nil, State{Rows: 3, MaxDate: d1}, false, nil, ErrCursorMissing},
		{"reseed", nil, State{Rows: 3, MaxDate: d1}, true, d1, nil},
		{"reseed keeps a set cursor", d1, State{Rows: 3, MaxDate: testkit.DatePtr(2019, 3, 1)}, true, d1, nil},
	}
	for _, c := range cases {
		got, err := Boundary(c.cursor, c.st, c.reseed)
		if err != c.err {
			t.Fatalf("%s: err = %v", c.name, err)
		}
		if c.err != nil && !perr.IsCode(err, perr.ErrorCodeState) {
			t.Fatalf("%s: cursor errors carry the state code", c.name)
		}
		if (got == nil) != (c.want == nil) || (got != nil && !got.Equal(*c.want)) {
			t.Fatalf("%s: boundary = %v", c.name, got)
		}
	}
}

func TestMissingWatermarkAbortsBuild(t *testing.T) {
	res, err := Build(Input{
		Lines:  []staging.Sale{line("T9", testkit.DatePtr(2019, 5, 1), 1, "1", false)},
		Cursor: testkit.DatePtr(2019, 4, 1),
	}, opts())
	if !IsStructural(err) || len(res.Batch) != 0 {
		t.Fatalf("err = %v batch = %d", err, len(res.Batch))
	}
}

func TestIncrementalSelectsOnlyNewDates(t *testing.T) {
	d1, d2, d3 := testkit.DatePtr(2019, 1, 1), testkit.DatePtr(2019, 1, 2), testkit.DatePtr(2019, 1, 3)
	staged := []staging.Sale{
		line("T1", d1, 1, "10", false),
		line("T2", d2, 1, "20", false),
		line("T3", d3, 1, "30", false),
		line("T0", nil, 1, "40", false),
	}

	first, err := Build(Input{Lines: staged[:1], Products: taxed10, Now: now}, opts())
	if err != nil || !first.Cursor.Equal(*d1) {
		t.Fatalf("seed run: %v cursor %v", err, first.Cursor)
	}
	table := Merge(nil, first.Batch)

	second, err := Build(Input{Lines: staged, Products: taxed10, Cursor: first.Cursor, State: StateOf(table), Now: now}, opts())
	if err != nil {
		t.Fatalf("incremental: %v", err)
	}
	if second.Selected != 2 || second.Batch[0].TransactionID != "T2" || second.Batch[1].TransactionID != "T3" {
		t.Fatalf("selected = %d %+v", second.Selected, second.Batch)
	}
	if !second.Cursor.Equal(*d3) {
		t.Fatalf("cursor = %v", second.Cursor)
	}
	table = Merge(table, second.Batch)
	if len(table) != 3 {
		t.Fatalf("table = %d rows", len(table))
	}
}

func TestIdempotentRerun(t *testing.T) {
	staged := []staging.Sale{
		line("T1", testkit.DatePtr(2019, 1, 1), 1, "10", true),
		line("T2", testkit.DatePtr(2019, 1, 2), 2, "20", false),
	}
	run := func(cursor *time.Time, table []Fact, at time.Time) ([]Fact, *time.Time) {
		res, err := Build(Input{Lines: staged, Coupons: apparel10, Products: taxed10, Cursor: cursor, State: StateOf(table), Now: at}, opts())
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		return Merge(table, res.Batch), res.Cursor
	}
	table, cursor := run(nil, nil, now)
	again, cursor2 := run(cursor, table, now.Add(time.Hour))
	if !reflect.DeepEqual(table, again) || !cursor.Equal(*cursor2) {
		t.Fatalf("second run changed the table")
	}
}

func TestMergeReplacesInPlace(t *testing.T) {
	existing := []Fact{{Key: "A", CouponStatus: "old"}, {Key: "B"}, {Key: "C"}}
	batch := Collapse([]Fact{{Key: "D"}, {Key: "B", CouponStatus: "first"}, {Key: "B", CouponStatus: "new"}})
	got := Merge(existing, batch)
	keys := []string{}
	for _, f := range got {
		keys = append(keys, f.Key)
	}
	if !reflect.DeepEqual(keys, []string{"A", "B", "C", "D"}) || got[1].CouponStatus != "new" {
		t.Fatalf("merged = %+v", got)
	}
}

func TestLineGrainKeepsMultiLineTransactions(t *testing.T) {
	a := line("T1", testkit.DatePtr(2019, 1, 1), 1, "10", false)
	b := a
	b.ProductSKU = "SKU2"

	o := opts()
	res, _ := Build(Input{Lines: []staging.Sale{a, b}}, o)
	if len(res.Batch) != 1 {
		t.Fatalf("transaction grain should collapse to one row, got %d", len(res.Batch))
	}
	o.Grain = GrainLine
	res, _ = Build(Input{Lines: []staging.Sale{a, b}}, o)
	if len(res.Batch) != 2 || res.Batch[1].Key != "T1|SKU2" {
		t.Fatalf("line grain = %+v", res.Batch)
	}
	o.Grain = "basket"
	if _, err := Build(Input{}, o); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("unknown grain err = %v", err)
	}
}

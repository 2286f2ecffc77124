package validate

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	perr "insightmart/internal/platform/errors"
	"insightmart/internal/platform/testkit"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func catalog() Catalog {
	return Catalog{
		TenureSegments: []string{"New", "Developing", "Established", "Loyal"},
		SaleSizes:      []string{"Small", "Medium", "Large", "Extra Large"},
		SegmentNames:   []string{"A", "B"},
		Volatility:     []string{"LOW_VOLATILITY", "MEDIUM_VOLATILITY", "HIGH_VOLATILITY"},
	}
}

func result(t *testing.T, rep Report, name string) Result {
	t.Helper()
	for _, r := range rep.Results {
		if r.Rule == name {
			return r
		}
	}
	t.Fatalf("no result for %s in %+v", name, rep.Results)
	return Result{}
}

func TestDefaultCatalogue(t *testing.T) {
	day := testkit.Date(2024, 1, 1)
	s := Snapshot{}.
		Add(Table{Name: TableDate, Key: Keys[TableDate], Rows: []Row{{"date_key": 20240101, "date": day}}}).
		Add(Table{Name: TableCustomer, Key: Keys[TableCustomer], Rows: []Row{
			{"customer_id": "C1", "tenure_segment": testkit.Ptr("New")},
			{"customer_id": "C1", "tenure_segment": testkit.Ptr("Ancient")},
			{"customer_id": "C2", "tenure_segment": (*string)(nil)},
		}}).
		Add(Table{Name: TableProduct, Key: Keys[TableProduct], Rows: []Row{{"product_sku": "S1"}}}).
		Add(Table{Name: TableSales, Key: Keys[TableSales], Rows: []Row{
			{"fact_key": "T1", "customer_id": "C1", "product_sku": "S1", "transaction_date": &day,
				"gross_sales_amount": d("100"), "net_sales_amount": d("40"), "discount_amount": d("60"), "total_amount": d("44"), "sale_size_category": "Medium"},
			{"fact_key": "T2", "customer_id": "C9", "product_sku": "S1", "transaction_date": testkit.DatePtr(2030, 1, 1),
				"gross_sales_amount": d("10"), "net_sales_amount": d("10"), "discount_amount": d("0"), "total_amount": d("-1"), "sale_size_category": "Small"},
			{"fact_key": nil, "customer_id": "C1", "product_sku": "S1", "transaction_date": (*time.Time)(nil),
				"gross_sales_amount": d("0"), "net_sales_amount": d("0"), "discount_amount": d("0"), "total_amount": d("0"), "sale_size_category": "Small"},
		}}).
		Add(Table{Name: TableHistory, Key: Keys[TableHistory], Rows: []Row{
			{"history_id": "h1", "customer_id": "C1", "valid_to": (*time.Time)(nil)},
			{"history_id": "h2", "customer_id": "C1", "valid_to": (*time.Time)(nil)},
			{"history_id": "h3", "customer_id": "C2", "valid_to": &day},
		}})

	zero := 0.0
	c := catalog()
	c.TotalMin = &zero
	rep := Evaluate(s, Default(c))

	want := map[string]int{
		"dim_customers_pk_unique":          1,
		"dim_customers_tenure_segment":     1,
		"fct_sales_pk_not_null":            1,
		"fct_sales_customer_fk":            1,
		"fct_sales_product_fk":             0,
		"fct_sales_date_fk":                1,
		"fct_sales_total_amount_range":     1,
		"fct_sales_discount_le_half_gross": 1,
		"fct_sales_total_ge_net":           1,
		"snap_customers_one_open":          2,
	}
	for name, n := range want {
		if got := result(t, rep, name); got.Violations != n {
			t.Fatalf("%s = %d violations (%v), want %d", name, got.Violations, got.Samples, n)
		}
	}
	if r := result(t, rep, "fct_sales_customer_fk"); len(r.Samples) != 1 || r.Samples[0] != "T2" {
		t.Fatalf("fk samples = %v", r.Samples)
	}
	for _, r := range rep.Results {
		if r.Table == TablePrices || r.Table == TableSegments {
			t.Fatalf("absent table evaluated: %+v", r)
		}
	}
	if len(rep.Failed()) == 0 || len(rep.Warnings()) != 0 {
		t.Fatalf("failed=%d warnings=%d", len(rep.Failed()), len(rep.Warnings()))
	}
}

func TestPricePositiveAndSamplesCap(t *testing.T) {
	var rows []Row
	for i := 0; i < 8; i++ {
		rows = append(rows, Row{"id": fmt.Sprintf("p%d", i), "price": 0.0, "volatility_category": "LOW_VOLATILITY"})
	}
	rows = append(rows, Row{"id": "ok", "price": 0.01, "volatility_category": "LOW_VOLATILITY"})
	rep := Evaluate(Snapshot{}.Add(Table{Name: TablePrices, Key: Keys[TablePrices], Rows: rows}), Default(catalog()))
	r := result(t, rep, "stream_prices_price_positive")
	if r.Violations != 8 || len(r.Samples) != MaxSamples || r.Samples[0] != "p0" {
		t.Fatalf("result = %+v", r)
	}
}

func TestSeverityOverrides(t *testing.T) {
	o, err := ParseOverrides("fct_sales_date_fk:warn, snap_customers_one_open:FAIL")
	if err != nil || o["fct_sales_date_fk"] != SeverityWarn || o["snap_customers_one_open"] != SeverityFail {
		t.Fatalf("ParseOverrides = %v, %v", o, err)
	}
	rules, err := ApplySeverity(Default(catalog()), o)
	if err != nil {
		t.Fatalf("ApplySeverity: %v", err)
	}
	for _, r := range rules {
		if r.Name == "fct_sales_date_fk" && r.Severity != SeverityWarn {
			t.Fatalf("override not applied")
		}
	}
	if _, err := ApplySeverity(rules, map[string]Severity{"nope": SeverityWarn}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("unknown rule err = %v", err)
	}
	for _, bad := range []string{"x:maybe", ":warn", "justaname"} {
		if _, err := ParseOverrides(bad); err == nil {
			t.Fatalf("%q parsed", bad)
		}
	}
}

// Every fact whose customer is absent from the dimension is reported, and nothing else is
func TestForeignKeyProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for round := 0; round < 200; round++ {
		known := map[string]bool{}
		var dim []Row
		nDim, nFacts := rng.IntN(20), rng.IntN(50)
		for i := 0; i < nDim; i++ {
			id := fmt.Sprintf("C%d", rng.IntN(30))
			if !known[id] {
				known[id] = true
				dim = append(dim, Row{"customer_id": id})
			}
		}
		var facts []Row
		orphans := 0
		for i := 0; i < nFacts; i++ {
			var cust any = fmt.Sprintf("C%d", rng.IntN(30))
			if rng.IntN(10) == 0 {
				cust = nil
			} else if !known[cust.(string)] {
				orphans++
			}
			facts = append(facts, Row{"fact_key": fmt.Sprintf("T%d", i), "customer_id": cust})
		}
		s := Snapshot{}.
			Add(Table{Name: TableCustomer, Key: Keys[TableCustomer], Rows: dim}).
			Add(Table{Name: TableSales, Key: Keys[TableSales], Rows: facts})
		got := result(t, Evaluate(s, Default(catalog())), "fct_sales_customer_fk")
		if got.Violations != orphans {
			t.Fatalf("round %d: violations = %d, orphans = %d", round, got.Violations, orphans)
		}
	}
}

func TestBlankKeysCountAsNull(t *testing.T) {
	day := testkit.Date(2024, 1, 1)
	s := Snapshot{}.
		Add(Table{Name: TableCustomer, Key: Keys[TableCustomer], Rows: []Row{{"customer_id": "C1"}, {"customer_id": "  "}}}).
		Add(Table{Name: TableProduct, Key: Keys[TableProduct], Rows: []Row{{"product_sku": "S1"}}}).
		Add(Table{Name: TableSales, Key: Keys[TableSales], Rows: []Row{
			{"fact_key": "T1", "transaction_id": "T1", "customer_id": "C1", "product_sku": "S1", "transaction_date": &day},
			{"fact_key": "", "transaction_id": "", "customer_id": "C1", "product_sku": "S1", "transaction_date": &day},
			{"fact_key": "T3", "transaction_id": "T3", "customer_id": "", "product_sku": testkit.Ptr(" "), "transaction_date": &day},
		}})
	rep := Evaluate(s, Default(catalog()))

	want := map[string]int{
		"dim_customers_pk_not_null": 1,
		"fct_sales_pk_not_null":     1,
		"fct_sales_keys_not_null":   2,
		"fct_sales_customer_fk":     0,
		"fct_sales_product_fk":      0,
	}
	for name, n := range want {
		if got := result(t, rep, name); got.Violations != n {
			t.Fatalf("%s = %d violations (%v), want %d", name, got.Violations, got.Samples, n)
		}
	}
	if r := result(t, rep, "fct_sales_keys_not_null"); r.Samples[1] != "T3" {
		t.Fatalf("samples = %v", r.Samples)
	}
}

package validate

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Table names shared by the builders, the repos and the catalogue
const (
	TableDate     = "dim_date"
	TableCustomer = "dim_customers"
	TableProduct  = "dim_products"
	TableSales    = "fct_sales"
	TableSegments = "fct_customer_segments"
	TableHistory  = "snap_customers"
	TablePrices   = "stream_prices"
	TableNews     = "stream_news"
)

// Keys are the primary key columns per table
var Keys = map[string][]string{
	TableDate:     {"date_key"},
	TableCustomer: {"customer_id"},
	TableProduct:  {"product_sku"},
	TableSales:    {"fact_key"},
	TableSegments: {"customer_id"},
	TableHistory:  {"history_id"},
	TablePrices:   {"id"},
	TableNews:     {"id"},
}

// Catalog carries the closed label sets and bounds the default rules check against
type Catalog struct {
	TenureSegments   []string
	ProductGroups    []string
	SaleSizes        []string
	SegmentNames     []string
	ActivityStatuses []string
	Volatility       []string
	HeadlineLengths  []string
	SourceCategories []string
	TotalMin         *float64
	TotalMax         *float64
}

// Default returns the stock rule set, all fail severity except where noted
func Default(c Catalog) []Rule {
	var rs []Rule
	for _, t := range []string{TableDate, TableCustomer, TableProduct, TableSales, TableSegments, TableHistory, TablePrices, TableNews} {
		rs = append(rs,
			Rule{Name: t + "_pk_unique", Table: t, Kind: KindUnique, Columns: Keys[t]},
			Rule{Name: t + "_pk_not_null", Table: t, Kind: KindNotNull, Columns: Keys[t]},
		)
	}

	rs = append(rs,
		fk("fct_sales_customer_fk", TableSales, "customer_id", TableCustomer, "customer_id"),
		fk("fct_sales_product_fk", TableSales, "product_sku", TableProduct, "product_sku"),
		fk("fct_sales_date_fk", TableSales, "transaction_date", TableDate, "date"),
		// foreign keys pass blanks, so the join columns need their own check
		Rule{Name: "fct_sales_keys_not_null", Table: TableSales, Kind: KindNotNull, Columns: []string{"transaction_id", "customer_id", "product_sku"}},
	)
	seg := fk("fct_customer_segments_customer_fk", TableSegments, "customer_id", TableCustomer, "customer_id")
	seg.Severity = SeverityWarn
	rs = append(rs, seg)

	ids := make([]string, len(c.SegmentNames))
	for i := range ids {
		ids[i] = strconv.Itoa(i)
	}
	rs = append(rs,
		accepted(TableCustomer, "tenure_segment", c.TenureSegments),
		accepted(TableProduct, "product_group", c.ProductGroups),
		accepted(TableSales, "sale_size_category", c.SaleSizes),
		accepted(TableSegments, "segment_id", ids),
		accepted(TableSegments, "segment_name", c.SegmentNames),
		accepted(TableSegments, "activity_status", c.ActivityStatuses),
		accepted(TablePrices, "volatility_category", c.Volatility),
		accepted(TableNews, "headline_length", c.HeadlineLengths),
		accepted(TableNews, "source_category", c.SourceCategories),
	)

	zero := 0.0
	rs = append(rs,
		Rule{Name: "fct_sales_total_amount_range", Table: TableSales, Kind: KindRange, Columns: []string{"total_amount"}, Min: c.TotalMin, Max: c.TotalMax},
		Rule{Name: "stream_prices_price_positive", Table: TablePrices, Kind: KindRange, Columns: []string{"price"}, Min: &zero, MinOpen: true},
		Rule{Name: "fct_sales_discount_le_half_gross", Table: TableSales, Kind: KindExpression, Check: compare(TableSales, "discount_amount", "gross_sales_amount", decimal.NewFromFloat(0.5))},
		Rule{Name: "fct_sales_total_ge_net", Table: TableSales, Kind: KindExpression, Check: compare(TableSales, "net_sales_amount", "total_amount", decimal.NewFromInt(1))},
		Rule{Name: "snap_customers_one_open", Table: TableHistory, Kind: KindExpression, Check: oneOpen},
	)

	for i := range rs {
		if rs[i].Severity == "" {
			rs[i].Severity = SeverityFail
		}
	}
	return rs
}

func fk(name, table, col, refTable, refCol string) Rule {
	return Rule{Name: name, Table: table, Kind: KindForeignKey, Columns: []string{col}, Ref: Ref{Table: refTable, Column: refCol}}
}

func accepted(table, col string, values []string) Rule {
	return Rule{Name: table + "_" + col, Table: table, Kind: KindAcceptedValues, Columns: []string{col}, Values: values}
}

// compare flags rows where left > factor*right; rows with either side null pass
func compare(table, left, right string, factor decimal.Decimal) func(Snapshot) []Row {
	return func(s Snapshot) []Row {
		var bad []Row
		for _, r := range s[table].Rows {
			l, ok1 := number(r[left])
			rv, ok2 := number(r[right])
			if ok1 && ok2 && l.GreaterThan(rv.Mul(factor)) {
				bad = append(bad, r)
			}
		}
		return bad
	}
}

// oneOpen flags open history rows of customers that have more than one
func oneOpen(s Snapshot) []Row {
	open := map[string][]Row{}
	var order []string
	for _, r := range s[TableHistory].Rows {
		if !isNull(r["valid_to"]) {
			continue
		}
		id, _ := text(r["customer_id"])
		if _, ok := open[id]; !ok {
			order = append(order, id)
		}
		open[id] = append(open[id], r)
	}
	var bad []Row
	for _, id := range order {
		if rows := open[id]; len(rows) > 1 {
			bad = append(bad, rows...)
		}
	}
	return bad
}

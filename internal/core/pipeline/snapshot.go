package pipeline

import (
	"insightmart/internal/core/calendar"
	"insightmart/internal/core/dims"
	"insightmart/internal/core/history"
	"insightmart/internal/core/sales"
	"insightmart/internal/core/segments"
	"insightmart/internal/core/stream"
	"insightmart/internal/core/validate"
)

// Snapshot lays a build's outputs out as validation tables
func Snapshot(out Output, hist []history.Record) validate.Snapshot {
	return validate.Snapshot{}.
		Add(DateTable(out.Calendar)).
		Add(CustomerTable(out.Customers)).
		Add(ProductTable(out.Products)).
		Add(SalesTable(out.Facts)).
		Add(SegmentTable(out.Segments)).
		Add(HistoryTable(hist))
}

func table(name string, n int) validate.Table {
	return validate.Table{Name: name, Key: validate.Keys[name], Rows: make([]validate.Row, 0, n)}
}

// DateTable renders dim_date
func DateTable(days []calendar.Day) validate.Table {
	t := table(validate.TableDate, len(days))
	for _, d := range days {
		t.Rows = append(t.Rows, validate.Row{"date_key": d.DateKey, "date": d.Date})
	}
	return t
}

// CustomerTable renders dim_customers
func CustomerTable(cs []dims.Customer) validate.Table {
	t := table(validate.TableCustomer, len(cs))
	for _, c := range cs {
		t.Rows = append(t.Rows, validate.Row{
			"customer_id":    c.CustomerID,
			"gender":         c.Gender,
			"location":       c.Location,
			"tenure_months":  c.TenureMonths,
			"tenure_segment": c.TenureSegment,
		})
	}
	return t
}

// ProductTable renders dim_products
func ProductTable(ps []dims.Product) validate.Table {
	t := table(validate.TableProduct, len(ps))
	for _, p := range ps {
		t.Rows = append(t.Rows, validate.Row{
			"product_sku":      p.SKU,
			"product_category": p.Category,
			"product_group":    p.Group,
			"gst_rate":         p.GSTRate,
		})
	}
	return t
}

// SalesTable renders fct_sales
func SalesTable(fs []sales.Fact) validate.Table {
	t := table(validate.TableSales, len(fs))
	for _, f := range fs {
		t.Rows = append(t.Rows, validate.Row{
			"fact_key":           f.Key,
			"transaction_id":     f.TransactionID,
			"customer_id":        f.CustomerID,
			"product_sku":        f.ProductSKU,
			"transaction_date":   f.TransactionDate,
			"gross_sales_amount": f.Gross,
			"net_sales_amount":   f.Net,
			"gst_amount":         f.GST,
			"total_amount":       f.Total,
			"discount_amount":    f.DiscountAmount,
			"sale_size_category": f.SizeCategory,
		})
	}
	return t
}

// SegmentTable renders fct_customer_segments
func SegmentTable(fs []segments.Fact) validate.Table {
	t := table(validate.TableSegments, len(fs))
	for _, f := range fs {
		t.Rows = append(t.Rows, validate.Row{
			"customer_id":     f.CustomerID,
			"segment_id":      f.SegmentID,
			"segment_name":    f.SegmentName,
			"activity_status": f.ActivityStatus,
		})
	}
	return t
}

// HistoryTable renders snap_customers
func HistoryTable(rs []history.Record) validate.Table {
	t := table(validate.TableHistory, len(rs))
	for _, r := range rs {
		t.Rows = append(t.Rows, validate.Row{
			"history_id":  r.HistoryID,
			"customer_id": r.CustomerID,
			"valid_from":  r.ValidFrom,
			"valid_to":    r.ValidTo,
		})
	}
	return t
}

// PriceTable renders a stream_prices batch
func PriceTable(fs []stream.PriceFact) validate.Table {
	t := table(validate.TablePrices, len(fs))
	for _, f := range fs {
		t.Rows = append(t.Rows, validate.Row{"id": f.ID, "price": f.Price, "volatility_category": f.Volatility})
	}
	return t
}

// NewsTable renders a stream_news batch
func NewsTable(fs []stream.NewsFact) validate.Table {
	t := table(validate.TableNews, len(fs))
	for _, f := range fs {
		t.Rows = append(t.Rows, validate.Row{
			"id":              f.ID,
			"headline_length": f.HeadlineLength,
			"source_category": f.SourceCategory,
		})
	}
	return t
}

// Package pipeline runs one batch build in memory, in dependency order:
// staging, calendar and dimensions, sales, history, segments, then validation
package pipeline

import (
	"strings"
	"time"

	"insightmart/internal/core/calendar"
	"insightmart/internal/core/dims"
	"insightmart/internal/core/history"
	"insightmart/internal/core/sales"
	"insightmart/internal/core/segments"
	"insightmart/internal/core/staging"
	"insightmart/internal/core/validate"
	perr "insightmart/internal/platform/errors"
)

// Options bundles per-stage options
type Options struct {
	Staging   staging.Options
	Calendar  calendar.Bounds
	Customers dims.CustomerOptions
	Products  dims.ProductOptions
	Sales     sales.Options
	Segments  segments.Options
	History   history.Options
	Rules     []validate.Rule
}

// Input is everything a run reads
type Input struct {
	Raw staging.Raw
	// Facts is the current fct_sales
	Facts  []sales.Fact
	Cursor *time.Time
	Reseed bool
	// OpenHistory is the open snap_customers records
	OpenHistory []history.Record
	Assignments []segments.Assignment
	Now         time.Time
}

// Output is everything a run writes
type Output struct {
	Staged    staging.Staged
	Calendar  []calendar.Day
	Customers []dims.Customer
	Products  []dims.Product
	// Batch is the rows to upsert; Facts is the table after the merge
	Batch    []sales.Fact
	Facts    []sales.Fact
	Selected int
	Cursor   *time.Time
	History  history.Change
	Segments []segments.Fact
	Report   validate.Report
}

// Run builds every output. A structural failure returns a zero Output.
// A fail-severity violation returns the full Output with a validation error
func Run(in Input, o Options) (Output, error) {
	var out Output
	out.Staged = staging.New(o.Staging).Stage(in.Raw)

	start, end, err := calendar.Horizon(observed(out.Staged, in.Facts), o.Calendar, in.Now)
	if err != nil {
		return Output{}, err
	}
	if out.Calendar, err = calendar.Generate(start, end); err != nil {
		return Output{}, err
	}

	out.Customers = dims.BuildCustomers(out.Staged.Customers, o.Customers)
	out.Products = dims.BuildProducts(out.Staged.Sales, out.Staged.Taxes, o.Products)

	res, err := sales.Build(sales.Input{
		Lines:    out.Staged.Sales,
		Coupons:  out.Staged.Coupons,
		Products: out.Products,
		Cursor:   in.Cursor,
		State:    sales.StateOf(in.Facts),
		Reseed:   in.Reseed,
		Now:      in.Now,
	}, o.Sales)
	if err != nil {
		return Output{}, err
	}
	out.Batch, out.Selected, out.Cursor = res.Batch, res.Selected, res.Cursor
	out.Facts = sales.Merge(in.Facts, res.Batch)

	if out.History, err = history.Diff(in.OpenHistory, out.Customers, in.Now, o.History); err != nil {
		return Output{}, err
	}

	out.Segments = segments.Enrich(in.Assignments, out.Customers, out.Facts, o.Segments, in.Now)

	out.Report = validate.Evaluate(Snapshot(out, history.Apply(in.OpenHistory, out.History)), o.Rules)
	return out, Failure(out.Report)
}

// Failure turns fail-severity violations into a validation error, nil when there are none
func Failure(rep validate.Report) error {
	failed := rep.Failed()
	if len(failed) == 0 {
		return nil
	}
	names := make([]string, len(failed))
	for i, f := range failed {
		names[i] = f.Rule
	}
	return perr.Validationf("validation failed: %s", strings.Join(names, ", "))
}

func observed(st staging.Staged, facts []sales.Fact) []*time.Time {
	out := make([]*time.Time, 0, len(st.Sales)+len(st.Spend)+len(facts))
	for _, s := range st.Sales {
		out = append(out, s.TransactionDate)
	}
	for _, s := range st.Spend {
		out = append(out, s.Date)
	}
	for _, f := range facts {
		out = append(out, f.TransactionDate)
	}
	return out
}

// CatalogOf fills the batch label sets from o; stream label sets, segment names and
// the total range come from base
func CatalogOf(o Options, base validate.Catalog) validate.Catalog {
	c := base
	c.TenureSegments = o.Customers.Tenure.Labels()
	c.ProductGroups = o.Products.Groups.Values()
	c.SaleSizes = o.Sales.SaleSize.Labels()
	c.ActivityStatuses = o.Segments.Recency.Labels()
	return c
}

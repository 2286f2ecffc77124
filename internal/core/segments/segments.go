// Package segments joins clustering output with the customer dimension and sales RFM
package segments

import (
	"sort"
	"time"

	"insightmart/internal/core/dims"
	"insightmart/internal/core/rules"
	"insightmart/internal/core/sales"

	"github.com/shopspring/decimal"
)

// Assignment is a row of the clustering artifact
type Assignment struct {
	CustomerID  string
	SegmentID   int
	SegmentName string
}

// Fact is a row of fct_customer_segments. Aggregates are nil for customers without sales
type Fact struct {
	CustomerID   string
	SegmentID    int
	SegmentName  string
	Location     *string
	Gender       *string
	TenureMonths *int

	TotalOrders           *int
	TotalQuantity         *int
	TotalRevenue          *decimal.Decimal
	FirstPurchase         *time.Time
	LastPurchase          *time.Time
	DaysSinceLastPurchase *int
	AvgOrderValue         *decimal.Decimal
	LifetimeDays          *int
	DailyRevenueRate      *decimal.Decimal
	ActivityStatus        string

	UpdatedAt time.Time
}

// Options tunes Enrich
type Options struct {
	// AsOf anchors recency; the run time when nil
	AsOf      *time.Time
	Recency   rules.Bands
	Precision int32
}

type rfm struct {
	orders   map[string]bool
	quantity int
	revenue  decimal.Decimal
	first    *time.Time
	last     *time.Time
}

// Enrich builds one fact per assigned customer, in customer id order
func Enrich(assign []Assignment, customers []dims.Customer, facts []sales.Fact, o Options, now time.Time) []Fact {
	asOf := day(now)
	if o.AsOf != nil {
		asOf = day(*o.AsOf)
	}

	dim := make(map[string]dims.Customer, len(customers))
	for _, c := range customers {
		dim[c.CustomerID] = c
	}

	agg := map[string]*rfm{}
	for _, f := range facts {
		a := agg[f.CustomerID]
		if a == nil {
			a = &rfm{orders: map[string]bool{}}
			agg[f.CustomerID] = a
		}
		a.orders[f.TransactionID] = true
		if f.Quantity != nil {
			a.quantity += *f.Quantity
		}
		a.revenue = a.revenue.Add(f.Total)
		if d := f.TransactionDate; d != nil {
			if a.first == nil || d.Before(*a.first) {
				a.first = d
			}
			if a.last == nil || d.After(*a.last) {
				a.last = d
			}
		}
	}

	out := make([]Fact, 0, len(assign))
	for _, s := range assign {
		f := Fact{CustomerID: s.CustomerID, SegmentID: s.SegmentID, SegmentName: s.SegmentName, UpdatedAt: now}
		if c, ok := dim[s.CustomerID]; ok {
			f.Location, f.Gender, f.TenureMonths = c.Location, c.Gender, c.TenureMonths
		}
		if a := agg[s.CustomerID]; a != nil {
			fill(&f, a, asOf, o.Precision)
		}
		if f.DaysSinceLastPurchase == nil {
			f.ActivityStatus = o.Recency.Above()
		} else {
			f.ActivityStatus = o.Recency.Pick(float64(*f.DaysSinceLastPurchase))
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out
}

func fill(f *Fact, a *rfm, asOf time.Time, places int32) {
	orders := len(a.orders)
	qty := a.quantity
	rev := a.revenue.Round(places)
	f.TotalOrders, f.TotalQuantity, f.TotalRevenue = &orders, &qty, &rev
	if orders > 0 {
		aov := a.revenue.DivRound(decimal.NewFromInt(int64(orders)), places)
		f.AvgOrderValue = &aov
	}
	if a.last == nil {
		return
	}
	first, last := day(*a.first), day(*a.last)
	f.FirstPurchase, f.LastPurchase = &first, &last
	since := days(last, asOf)
	life := days(first, last)
	f.DaysSinceLastPurchase, f.LifetimeDays = &since, &life
	if life > 0 {
		rate := a.revenue.DivRound(decimal.NewFromInt(int64(life)), places)
		f.DailyRevenueRate = &rate
	}
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func days(from, to time.Time) int { return int(to.Sub(from).Hours() / 24) }

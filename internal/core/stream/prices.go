package stream

import (
	"math"
	"time"

	"insightmart/internal/core/rules"
)

// SourcePrices names the price stream in cursors and rejects
const SourcePrices = "stream_prices"

// PriceRaw is a row of bitcoin_prices_raw
type PriceRaw struct {
	ID                 string
	Source             string
	Price              *float64
	Change24h          *float64
	EventTimestamp     time.Time
	IngestionTimestamp time.Time
}

// EventID implements Event
func (p PriceRaw) EventID() string { return p.ID }

// EventTime implements Event
func (p PriceRaw) EventTime() time.Time { return p.EventTimestamp }

// PriceFact is a row of stream_prices
type PriceFact struct {
	ID                 string
	Source             string
	Price              float64
	Change24h          float64
	EventTimestamp     time.Time
	IngestionTimestamp time.Time
	Volatility         string
	PriceDate          time.Time
	PriceHour          int
	DayOfWeek          int // 1 = Monday
	PreviousPrice      *float64
	IsValid            bool
	ProcessedAt        time.Time
}

// Reject reasons for prices
const (
	ReasonPriceNull     = "price is null"
	ReasonPriceNonPos   = "price is not positive"
	ReasonChange24hNull = "change_24h is null"
)

// PriceOptions tunes EvalPrices
type PriceOptions struct {
	Volatility rules.Bands
	// Previous seeds previous_price with the last materialized price
	Previous *float64
	Now      time.Time
}

// EvalPrices validates and tags rows in order; previous_price lags over valid rows only
func EvalPrices(rows []PriceRaw, o PriceOptions) []Result[PriceFact] {
	out := make([]Result[PriceFact], 0, len(rows))
	prev := o.Previous
	for _, r := range rows {
		if reason := priceReason(r); reason != "" {
			out = append(out, Rejected[PriceFact](Reject{
				Source: SourcePrices, EventID: r.ID, Reason: reason, EventTimestamp: r.EventTimestamp, Payload: r,
			}))
			continue
		}
		ts := r.EventTimestamp.UTC()
		wd := int(ts.Weekday())
		if wd == 0 {
			wd = 7
		}
		f := PriceFact{
			ID:                 r.ID,
			Source:             r.Source,
			Price:              *r.Price,
			Change24h:          *r.Change24h,
			EventTimestamp:     r.EventTimestamp,
			IngestionTimestamp: r.IngestionTimestamp,
			Volatility:         o.Volatility.Pick(math.Abs(*r.Change24h)),
			PriceDate:          time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
			PriceHour:          ts.Hour(),
			DayOfWeek:          wd,
			PreviousPrice:      prev,
			IsValid:            true,
			ProcessedAt:        o.Now,
		}
		p := *r.Price
		prev = &p
		out = append(out, Valid(f))
	}
	return out
}

func priceReason(r PriceRaw) string {
	switch {
	case r.Price == nil:
		return ReasonPriceNull
	case *r.Price <= 0:
		return ReasonPriceNonPos
	case r.Change24h == nil:
		return ReasonChange24hNull
	}
	return ""
}

// Package domain defines the stream ingest ports and types
package domain

import (
	"context"
	"time"

	"insightmart/internal/core/stream"
	"insightmart/internal/core/validate"
)

// RunnerPort is what binaries call
type RunnerPort interface {
	// RunOnce ingests every configured source concurrently and returns one log per source.
	// The error joins the per source failures
	RunOnce(ctx context.Context) ([]RunLog, error)
	// RunSource ingests one source
	RunSource(ctx context.Context, name string) (RunLog, error)
}

// StorageRepo spans Postgres (landed rows, cursors, rejects, run log) and the ClickHouse sink
type StorageRepo interface {
	Cursor(ctx context.Context, name string) (*time.Time, error)
	SetCursor(ctx context.Context, name string, v *time.Time) error

	// Prices and News return landed rows strictly after cursor, all rows when cursor is nil
	Prices(ctx context.Context, after *time.Time) ([]stream.PriceRaw, error)
	News(ctx context.Context, after *time.Time) ([]stream.NewsRaw, error)

	SaveRejects(ctx context.Context, runID string, rs []stream.Reject) error

	// LastPrice is the latest materialized price, nil when the sink is empty
	LastPrice(ctx context.Context) (*float64, error)
	// Seen returns which of ids already exist in table
	Seen(ctx context.Context, table string, ids []string) (map[string]bool, error)
	AppendPrices(ctx context.Context, fs []stream.PriceFact) error
	AppendNews(ctx context.Context, fs []stream.NewsFact) error

	StartRun(ctx context.Context, run RunLog) error
	FinishRun(ctx context.Context, run RunLog) error
	SaveValidation(ctx context.Context, runID string, rs []validate.Result) error
}

// Package domain defines the batch build ports and types
package domain

import (
	"context"
	"time"

	"insightmart/internal/core/calendar"
	"insightmart/internal/core/dims"
	"insightmart/internal/core/history"
	"insightmart/internal/core/sales"
	"insightmart/internal/core/segments"
	"insightmart/internal/core/staging"
	"insightmart/internal/core/validate"
)

// RunnerPort is what binaries call; one call is one build run
type RunnerPort interface {
	// RunOnce builds every output from the current raw tables and advances the sales cursor.
	// A held lease is a clean skip and returns a log with StatusSkipped and no error
	RunOnce(ctx context.Context) (RunLog, error)
}

// Source loads the raw batch tables, all columns as text
type Source interface {
	Load(ctx context.Context) (staging.Raw, error)
}

// StorageRepo is everything the build reads and writes in Postgres
type StorageRepo interface {
	Cursor(ctx context.Context, name string) (*time.Time, error)
	SetCursor(ctx context.Context, name string, v *time.Time) error

	// Facts returns the whole fct_sales table
	Facts(ctx context.Context) ([]sales.Fact, error)
	OpenHistory(ctx context.Context) ([]history.Record, error)
	Assignments(ctx context.Context) ([]segments.Assignment, error)

	ReplaceDates(ctx context.Context, days []calendar.Day) error
	ReplaceCustomers(ctx context.Context, cs []dims.Customer) error
	ReplaceProducts(ctx context.Context, ps []dims.Product) error
	ReplaceSpend(ctx context.Context, sp []staging.Spend) error
	UpsertFacts(ctx context.Context, batch []sales.Fact) error
	ApplyHistory(ctx context.Context, ch history.Change) error
	ReplaceSegments(ctx context.Context, fs []segments.Fact) error

	StartRun(ctx context.Context, run RunLog) error
	FinishRun(ctx context.Context, run RunLog) error
	SaveValidation(ctx context.Context, runID string, rs []validate.Result) error
}

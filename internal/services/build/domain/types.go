package domain

import "time"

// CursorSales names the fct_sales cursor in mart_cursors
const CursorSales = "fct_sales"

// KindBuild tags build runs in mart_runs
const KindBuild = "build"

// Run statuses
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// RunLog is a row of mart_runs
type RunLog struct {
	ID         string
	Kind       string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string

	Selected      int
	Upserted      int
	FactRows      int
	Customers     int
	Products      int
	Dates         int
	Segments      int
	HistoryOpened int
	HistoryClosed int
	FailedRules   int
	Cursor        *time.Time

	Error string
}

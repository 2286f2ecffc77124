package domain

import "time"

// Run statuses, shared with the build in mart_runs
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// RunLog is a row of mart_runs; Kind is the source name
type RunLog struct {
	ID         string
	Kind       string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string

	Selected    int
	Appended    int
	Duplicates  int
	Rejected    int
	FailedRules int
	Cursor      *time.Time

	Error string
}

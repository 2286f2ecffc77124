package domain

import (
	"encoding/json"
	"time"
)

// Run is a mart_runs row as served by the ops API
type Run struct {
	ID         string     `json:"run_id"`
	Kind       string     `json:"kind"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`

	Selected      int `json:"selected"`
	Upserted      int `json:"upserted"`
	FactRows      int `json:"fact_rows"`
	Customers     int `json:"customers"`
	Products      int `json:"products"`
	Dates         int `json:"dates"`
	Segments      int `json:"segments"`
	HistoryOpened int `json:"history_opened"`
	HistoryClosed int `json:"history_closed"`
	Duplicates    int `json:"duplicates"`
	Rejected      int `json:"rejected"`
	FailedRules   int `json:"failed_rules"`

	Cursor *time.Time `json:"cursor,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// ValidationResult is one rule outcome recorded for a run
type ValidationResult struct {
	Rule       string   `json:"rule"`
	Table      string   `json:"table"`
	Kind       string   `json:"kind"`
	Severity   string   `json:"severity"`
	Violations int      `json:"violations"`
	Samples    []string `json:"samples"`
}

// Cursor is a mart_cursors row
type Cursor struct {
	Name      string     `json:"name"`
	Value     *time.Time `json:"value,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Reject is a landed stream record that failed evaluation
type Reject struct {
	Source         string          `json:"source"`
	EventID        string          `json:"event_id"`
	Reason         string          `json:"reason"`
	EventTimestamp *time.Time      `json:"event_timestamp,omitempty"`
	Payload        json.RawMessage `json:"payload"`
	RunID          string          `json:"run_id"`
	RejectedAt     time.Time       `json:"rejected_at"`
}

// RunsInput filters the run log
type RunsInput struct {
	Kind   string `query:"kind"   validate:"omitempty,max=64"`
	Status string `query:"status" validate:"omitempty,oneof=running succeeded failed skipped"`
	Limit  int    `query:"limit"  validate:"min=1,max=500"`
}

// RejectsInput filters stream rejects
type RejectsInput struct {
	Source string `query:"source" validate:"omitempty,oneof=stream_prices stream_news"`
	Limit  int    `query:"limit"  validate:"min=1,max=500"`
}

// DefaultLimit is used when a list request omits limit
const DefaultLimit = 50

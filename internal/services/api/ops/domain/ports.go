// Package domain holds the ops API contract
package domain

import "context"

// ServicePort is consumed by handlers and other modules
type ServicePort interface {
	Runs(ctx context.Context, in RunsInput) ([]Run, error)
	Run(ctx context.Context, id string) (Run, error)
	Validation(ctx context.Context, runID string) ([]ValidationResult, error)
	Cursors(ctx context.Context) ([]Cursor, error)
	Rejects(ctx context.Context, in RejectsInput) ([]Reject, error)
}

// Package state persists per-lead processing state so batch runs are
// idempotent: a lead present in the table is never reprocessed.
package state

import (
	"context"

	"github.com/sells-group/leadflow-cli/internal/model"
)

// Store is the persistence interface for lead state. Upsert semantics are
// fixed across backends: insert starts follow_up_count at 1; updating an
// existing row increments it by exactly 1 and refreshes last_contact.
type Store interface {
	// Load returns every persisted lead state row.
	Load(ctx context.Context) ([]model.LeadState, error)

	// Upsert inserts or updates the row for leadID and returns the row as
	// written.
	Upsert(ctx context.Context, leadID string, status model.LeadStatus, nextAction string) (model.LeadState, error)

	// RecordFailure logs a per-lead processing error for diagnostics.
	// Failures never create a state row; the lead is retried next run.
	RecordFailure(ctx context.Context, leadID string, procErr error) error

	// ListFailures returns recorded failures, newest first.
	ListFailures(ctx context.Context) ([]model.FailureRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// ProcessedIDs builds the already-processed filter set from loaded state.
// Presence alone counts; status (including rejected) is irrelevant.
func ProcessedIDs(states []model.LeadState) map[string]bool {
	ids := make(map[string]bool, len(states))
	for _, s := range states {
		ids[s.LeadID] = true
	}
	return ids
}

// Package ledger reads the external decision ledger. The ledger owns the
// lifecycle of every record; this core only consumes a bounded recent slice.
package ledger

import (
	"context"
	"time"

	"main/internal/model"
)

// Ledger serves recent closed decisions, ordered by close time descending.
type Ledger interface {
	// RecentClosed returns up to limit decisions closed strictly after
	// the given time. A zero time means from the beginning.
	RecentClosed(ctx context.Context, after time.Time, limit int) ([]model.DecisionRecord, error)
}

package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/model/enum"
)

func TestMemoryRecentClosed(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	led := NewMemory()
	for i := 0; i < 5; i++ {
		led.Append(model.DecisionRecord{
			Verdict:    enum.VerdictApprove,
			Confidence: 50 + i,
			ClosedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}

	records, err := led.RecentClosed(ctx, time.Time{}, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.True(t, records[0].ClosedAt.After(records[1].ClosedAt), "newest first")

	// Strictly after the cutoff.
	records, err = led.RecentClosed(ctx, base.Add(2*time.Minute), 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

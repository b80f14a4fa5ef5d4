package breaker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/ledger"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/store"
)

func newBreaker(led *ledger.Memory) (*Breaker, *time.Time) {
	b := New(store.NewMemory(), led, Config{})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

// decisions builds a closed-decision batch ending just before the given time.
func decisions(end time.Time, rejects, others int, confidence int) []model.DecisionRecord {
	var out []model.DecisionRecord
	i := 0
	for ; i < rejects; i++ {
		out = append(out, model.DecisionRecord{
			Verdict:    enum.VerdictReject,
			Confidence: confidence,
			ClosedAt:   end.Add(-time.Duration(i+1) * time.Minute),
		})
	}
	for j := 0; j < others; j++ {
		out = append(out, model.DecisionRecord{
			Verdict:    enum.VerdictApprove,
			Confidence: 60,
			ClosedAt:   end.Add(-time.Duration(i+j+1) * time.Minute),
		})
	}
	return out
}

func TestCheckTripsOnRejectRate(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory()
	b, now := newBreaker(led)

	led.Append(decisions(*now, 6, 4, 50)...)

	require.NoError(t, b.Check(ctx))

	flag, err := b.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, flag, "6/10 rejects must trip (0.6 > 0.5)")
	assert.Equal(t, enum.SafeModeActive, flag.Mode)
	assert.Equal(t, 6, flag.Stats.RejectCount)
	assert.Equal(t, 0, flag.Stats.CatastrophicCount)
	assert.Equal(t, 5, flag.RecoveryRemaining)
	assert.True(t, flag.ExpiresAt.Equal(now.Add(time.Hour)))
}

func TestCheckDoesNotTripBelowThreshold(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory()
	b, now := newBreaker(led)

	led.Append(decisions(*now, 4, 6, 50)...)

	require.NoError(t, b.Check(ctx))
	flag, err := b.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, flag, "4/10 rejects must not trip")
}

func TestCheckTripsOnCatastrophicCount(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory()
	b, now := newBreaker(led)

	// Only 2/10 rejects, but both with confidence >= 85.
	led.Append(decisions(*now, 2, 8, 90)...)

	require.NoError(t, b.Check(ctx))
	flag, err := b.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, flag)
	assert.Equal(t, 2, flag.Stats.CatastrophicCount)
}

func TestCheckInsufficientNewData(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory()
	b, now := newBreaker(led)

	// 9 decisions, all rejects: still no action.
	led.Append(decisions(*now, 9, 0, 90)...)

	require.NoError(t, b.Check(ctx))
	flag, err := b.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, flag)
}

func TestCheckSkipsWhileTripped(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory()
	b, now := newBreaker(led)

	led.Append(decisions(*now, 10, 0, 90)...)
	require.NoError(t, b.Check(ctx))
	flag, err := b.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, flag)
	activatedAt := flag.ActivatedAt

	*now = now.Add(10 * time.Minute)
	led.Append(decisions(*now, 10, 0, 90)...)
	require.NoError(t, b.Check(ctx))

	flag, err = b.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, flag)
	assert.Equal(t, activatedAt, flag.ActivatedAt, "no trip stacking")
}

func TestCheckExpiresFlag(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory()
	b, now := newBreaker(led)

	led.Append(decisions(*now, 10, 0, 90)...)
	require.NoError(t, b.Check(ctx))

	*now = now.Add(time.Hour + time.Minute)
	require.NoError(t, b.Check(ctx))

	flag, err := b.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, flag, "expired flag must be deleted")
}

func TestBaselinePreventsResamplingOldDecisions(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory()
	b, now := newBreaker(led)

	led.Append(decisions(*now, 10, 0, 90)...)
	require.NoError(t, b.Check(ctx))

	// Flag expires; the expiry check deletes it and stops.
	*now = now.Add(time.Hour + time.Minute)
	require.NoError(t, b.Check(ctx))

	// Next invocation resamples: only decisions closed after the trip
	// count, and there are none, so the same batch cannot trip twice.
	require.NoError(t, b.Check(ctx))
	flag, err := b.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, flag)
}

func TestCurrentIgnoresExpiredFlag(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory()
	b, now := newBreaker(led)

	led.Append(decisions(*now, 10, 0, 90)...)
	require.NoError(t, b.Check(ctx))

	*now = now.Add(2 * time.Hour)
	flag, err := b.Current(ctx)
	require.NoError(t, err)
	assert.Nil(t, flag)
}

func TestUpgradeMovesActiveToRecovery(t *testing.T) {
	ctx := context.Background()
	led := ledger.NewMemory()
	b, now := newBreaker(led)

	moved, err := b.Upgrade(ctx)
	require.NoError(t, err)
	assert.False(t, moved, "nothing to upgrade")

	led.Append(decisions(*now, 10, 0, 90)...)
	require.NoError(t, b.Check(ctx))

	moved, err = b.Upgrade(ctx)
	require.NoError(t, err)
	assert.True(t, moved)

	flag, err := b.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, flag)
	assert.Equal(t, enum.SafeModeRecovery, flag.Mode)

	moved, err = b.Upgrade(ctx)
	require.NoError(t, err)
	assert.False(t, moved, "transition is forward-only")
}

package breaker

import (
	"context"
	"time"

	"github.com/yanun0323/errors"

	"main/internal/model/enum"
	"main/internal/store"
)

const (
	flagKey     = "safemode_flag"
	baselineKey = "safemode_baseline"
)

// TripStats records the sample that caused a trip.
type TripStats struct {
	SampleSize        int     `json:"sampleSize"`
	RejectCount       int     `json:"rejectCount"`
	RejectRate        float64 `json:"rejectRate"`
	CatastrophicCount int     `json:"catastrophicCount"`
}

// Flag is the safe-mode record. Its presence is the tripped state; the mode
// only moves forward, ACTIVE to RECOVERY to removed.
type Flag struct {
	Mode              enum.SafeMode `json:"mode"`
	ActivatedAt       time.Time     `json:"activatedAt"`
	ExpiresAt         time.Time     `json:"expiresAt"`
	Reason            string        `json:"reason"`
	Stats             TripStats     `json:"stats"`
	RecoveryRequired  int           `json:"recoveryRequired"`
	RecoveryRemaining int           `json:"recoveryRemaining"`
}

// activationBaseline survives flag removal so the breaker never resamples
// the decisions that caused the previous trip.
type activationBaseline struct {
	ActivatedAt time.Time `json:"activatedAt"`
}

func loadFlag(ctx context.Context, s store.Store) (Flag, bool, error) {
	var flag Flag
	ok, err := store.LoadJSON(ctx, s, flagKey, &flag)
	if err != nil {
		return Flag{}, false, errors.Wrap(err, "read safe-mode flag")
	}
	return flag, ok, nil
}

func saveFlag(ctx context.Context, s store.Store, flag Flag) error {
	if err := store.SaveJSON(ctx, s, flagKey, flag); err != nil {
		return errors.Wrap(err, "write safe-mode flag")
	}
	return nil
}

func deleteFlag(ctx context.Context, s store.Store) error {
	if err := s.Delete(ctx, flagKey); err != nil {
		return errors.Wrap(err, "delete safe-mode flag")
	}
	return nil
}

func loadBaseline(ctx context.Context, s store.Store) (time.Time, error) {
	var b activationBaseline
	ok, err := store.LoadJSON(ctx, s, baselineKey, &b)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "read activation baseline")
	}
	if !ok {
		return time.Time{}, nil
	}
	return b.ActivatedAt, nil
}

func saveBaseline(ctx context.Context, s store.Store, at time.Time) error {
	if err := store.SaveJSON(ctx, s, baselineKey, activationBaseline{ActivatedAt: at}); err != nil {
		return errors.Wrap(err, "write activation baseline")
	}
	return nil
}

// Package breaker samples recent decision quality and trips a process-wide
// safe-mode flag when it regresses, then lets the pipeline earn its way out
// through strict-path approvals. The breaker is advisory: its own failures
// surface to the scheduler and never gate admission.
package breaker

import (
	"context"
	"fmt"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/ledger"
	"main/internal/model/enum"
	"main/internal/store"
)

// Config holds the trip thresholds. Zero fields fall back to defaults.
type Config struct {
	SampleSize             int           `json:"sampleSize"`
	RejectRateThreshold    float64       `json:"rejectRateThreshold"`
	CatastrophicConfidence int           `json:"catastrophicConfidence"`
	CatastrophicMin        int           `json:"catastrophicMin"`
	Cooldown               time.Duration `json:"cooldown"`
	RecoveryCount          int           `json:"recoveryCount"`
}

func (cfg Config) withDefaults() Config {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 10
	}
	if cfg.RejectRateThreshold <= 0 {
		cfg.RejectRateThreshold = 0.50
	}
	if cfg.CatastrophicConfidence <= 0 {
		cfg.CatastrophicConfidence = 85
	}
	if cfg.CatastrophicMin <= 0 {
		cfg.CatastrophicMin = 2
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Hour
	}
	if cfg.RecoveryCount <= 0 {
		cfg.RecoveryCount = 5
	}
	return cfg
}

// Breaker evaluates recent ledger decisions against the trip thresholds.
type Breaker struct {
	store  store.Store
	ledger ledger.Ledger
	cfg    Config
	now    func() time.Time
}

func New(s store.Store, l ledger.Ledger, cfg Config) *Breaker {
	return &Breaker{store: s, ledger: l, cfg: cfg.withDefaults(), now: time.Now}
}

// Check runs one breaker invocation: expire a stale flag, skip while one is
// active, otherwise sample the ledger and trip when quality regressed.
// Only decisions closed after the activation baseline count, and fewer than
// a full sample takes no action, so one bad batch cannot trip twice.
func (b *Breaker) Check(ctx context.Context) error {
	now := b.now()

	flag, exists, err := loadFlag(ctx, b.store)
	if err != nil {
		return err
	}
	if exists {
		if !now.Before(flag.ExpiresAt) {
			logs.Infof("breaker: flag expired at %s, clearing", flag.ExpiresAt.Format(time.RFC3339))
			return deleteFlag(ctx, b.store)
		}
		// At most one active trip at a time; no re-evaluation while tripped.
		return nil
	}

	baseline, err := loadBaseline(ctx, b.store)
	if err != nil {
		return err
	}

	records, err := b.ledger.RecentClosed(ctx, baseline, b.cfg.SampleSize)
	if err != nil {
		return errors.Wrap(err, "sample decision ledger")
	}
	if len(records) < b.cfg.SampleSize {
		logs.Infof("breaker: %d/%d new decisions since baseline, skipping", len(records), b.cfg.SampleSize)
		return nil
	}

	rejects, catastrophic := 0, 0
	for _, r := range records {
		if r.Verdict != enum.VerdictReject {
			continue
		}
		rejects++
		if r.Confidence >= b.cfg.CatastrophicConfidence {
			catastrophic++
		}
	}
	rejectRate := float64(rejects) / float64(b.cfg.SampleSize)

	if rejectRate <= b.cfg.RejectRateThreshold && catastrophic < b.cfg.CatastrophicMin {
		return nil
	}

	flag = Flag{
		Mode:        enum.SafeModeActive,
		ActivatedAt: now,
		ExpiresAt:   now.Add(b.cfg.Cooldown),
		Reason: fmt.Sprintf("reject rate %.2f (threshold %.2f), catastrophic %d (min %d)",
			rejectRate, b.cfg.RejectRateThreshold, catastrophic, b.cfg.CatastrophicMin),
		Stats: TripStats{
			SampleSize:        b.cfg.SampleSize,
			RejectCount:       rejects,
			RejectRate:        rejectRate,
			CatastrophicCount: catastrophic,
		},
		RecoveryRequired:  b.cfg.RecoveryCount,
		RecoveryRemaining: b.cfg.RecoveryCount,
	}
	if err := saveFlag(ctx, b.store, flag); err != nil {
		return err
	}
	if err := saveBaseline(ctx, b.store, now); err != nil {
		return err
	}
	logs.Warnf("breaker: tripped safe mode until %s: %s", flag.ExpiresAt.Format(time.RFC3339), flag.Reason)
	return nil
}

// Current returns the flag when one exists and has not expired, so any
// pipeline stage can choose between the fast and strict paths. It never
// mutates state; expired flags are removed by the next Check.
func (b *Breaker) Current(ctx context.Context) (*Flag, error) {
	flag, exists, err := loadFlag(ctx, b.store)
	if err != nil {
		return nil, err
	}
	if !exists || !b.now().Before(flag.ExpiresAt) {
		return nil, nil
	}
	return &flag, nil
}

// Upgrade moves an ACTIVE flag to RECOVERY. The decision to upgrade belongs
// to an external step; this only guards the forward-only transition.
func (b *Breaker) Upgrade(ctx context.Context) (bool, error) {
	flag, exists, err := loadFlag(ctx, b.store)
	if err != nil {
		return false, err
	}
	if !exists || flag.Mode != enum.SafeModeActive {
		return false, nil
	}
	flag.Mode = enum.SafeModeRecovery
	if err := saveFlag(ctx, b.store, flag); err != nil {
		return false, err
	}
	return true, nil
}

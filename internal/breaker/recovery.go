package breaker

import (
	"context"

	"github.com/yanun0323/logs"

	"main/internal/model/enum"
)

// RecoveryStatus is the outcome of consuming one recovery slot.
type RecoveryStatus string

const (
	RecoveryNoFlag        RecoveryStatus = "no_flag"
	RecoveryNotInRecovery RecoveryStatus = "not_in_recovery"
	RecoveryConsumed      RecoveryStatus = "consumed"
	RecoveryComplete      RecoveryStatus = "complete"
)

// ConsumeRecoverySlot burns one strict-path approval toward clearing the
// safe-mode flag. Callers invoke it exactly once per synchronous APPROVE
// while RECOVERY is active. The remaining count only decreases; the flag is
// removed the moment it reaches zero.
func (b *Breaker) ConsumeRecoverySlot(ctx context.Context) (RecoveryStatus, int, error) {
	flag, exists, err := loadFlag(ctx, b.store)
	if err != nil {
		return RecoveryNoFlag, 0, err
	}
	if !exists {
		return RecoveryNoFlag, 0, nil
	}
	if flag.Mode != enum.SafeModeRecovery {
		return RecoveryNotInRecovery, flag.RecoveryRemaining, nil
	}

	if flag.RecoveryRemaining <= 0 {
		if err := deleteFlag(ctx, b.store); err != nil {
			return RecoveryComplete, 0, err
		}
		return RecoveryComplete, 0, nil
	}

	flag.RecoveryRemaining--
	if flag.RecoveryRemaining <= 0 {
		if err := deleteFlag(ctx, b.store); err != nil {
			return RecoveryComplete, 0, err
		}
		logs.Info("breaker: recovery complete, safe mode cleared")
		return RecoveryComplete, 0, nil
	}

	if err := saveFlag(ctx, b.store, flag); err != nil {
		return RecoveryConsumed, flag.RecoveryRemaining, err
	}
	return RecoveryConsumed, flag.RecoveryRemaining, nil
}

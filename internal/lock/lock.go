// Package lock provides a short-TTL mutual-exclusion primitive keyed by
// normalized subject, so two concurrent admissions for the same subject
// cannot both proceed.
package lock

import (
	"context"
	"encoding/json"
	"time"

	"github.com/yanun0323/errors"

	"main/internal/model"
	"main/internal/store"
	"main/pkg/exception"
)

const (
	recordKey  = "locks"
	DefaultTTL = 5 * time.Minute

	// casAttempts bounds retries when concurrent acquirers race on the table.
	casAttempts = 8
)

type table map[string]time.Time

// Locker hands out TTL-bounded subject locks over the shared state store.
// Acquisition is an atomic check-and-set on the persisted table; a plain
// read-then-write would leave a race window between concurrent callers.
type Locker struct {
	store store.Store
	ttl   time.Duration
	now   func() time.Time
}

func New(s store.Store, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Locker{store: s, ttl: ttl, now: time.Now}
}

// Acquire takes the lock for the subject. It returns false when an
// unexpired holder exists. Every call first discards all expired entries,
// not only the queried one.
func (l *Locker) Acquire(ctx context.Context, subject string) (bool, error) {
	subject = model.NormalizeSubject(subject)
	if subject == "" {
		return false, exception.ErrEmptySubject
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		raw, locks, err := l.load(ctx)
		if err != nil {
			return false, err
		}

		now := l.now()
		l.prune(locks, now)

		if _, held := locks[subject]; held {
			return false, nil
		}

		locks[subject] = now
		next, err := json.Marshal(locks)
		if err != nil {
			return false, errors.Wrap(err, "encode lock table")
		}
		ok, err := l.store.CompareAndSwap(ctx, recordKey, raw, next)
		if err != nil {
			return false, errors.Wrap(err, "swap lock table")
		}
		if ok {
			return true, nil
		}
	}
	return false, exception.ErrStoreConflict
}

// Release drops the subject's lock unconditionally, before its TTL.
func (l *Locker) Release(ctx context.Context, subject string) error {
	subject = model.NormalizeSubject(subject)

	for attempt := 0; attempt < casAttempts; attempt++ {
		raw, locks, err := l.load(ctx)
		if err != nil {
			return err
		}
		if _, held := locks[subject]; !held {
			return nil
		}

		delete(locks, subject)
		next, err := json.Marshal(locks)
		if err != nil {
			return errors.Wrap(err, "encode lock table")
		}
		ok, err := l.store.CompareAndSwap(ctx, recordKey, raw, next)
		if err != nil {
			return errors.Wrap(err, "swap lock table")
		}
		if ok {
			return nil
		}
	}
	return exception.ErrStoreConflict
}

// IsLocked reports whether an unexpired lock exists, without mutating state.
func (l *Locker) IsLocked(ctx context.Context, subject string) (bool, error) {
	subject = model.NormalizeSubject(subject)

	_, locks, err := l.load(ctx)
	if err != nil {
		return false, err
	}
	acquiredAt, held := locks[subject]
	if !held {
		return false, nil
	}
	return l.now().Sub(acquiredAt) < l.ttl, nil
}

// load returns the raw persisted bytes (for compare-and-swap) alongside the
// decoded table. A corrupt record decodes to an empty table; the raw bytes
// still anchor the swap so a concurrent repair is not silently overwritten.
func (l *Locker) load(ctx context.Context) ([]byte, table, error) {
	raw, ok, err := l.store.Get(ctx, recordKey)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read lock table")
	}
	if !ok {
		return nil, table{}, nil
	}
	locks := table{}
	if err := json.Unmarshal(raw, &locks); err != nil {
		return raw, table{}, nil
	}
	return raw, locks, nil
}

func (l *Locker) prune(locks table, now time.Time) {
	for subject, acquiredAt := range locks {
		if now.Sub(acquiredAt) >= l.ttl {
			delete(locks, subject)
		}
	}
}

package store

import (
	"context"
	"encoding/json"

	"github.com/yanun0323/logs"
)

// Store persists small coordination records as opaque bytes. Implementations
// must make Put an atomic replace; CompareAndSwap must be genuinely atomic
// since the lock table depends on it for mutual exclusion.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error

	// CompareAndSwap writes value only when the current record equals expect.
	// A nil expect means the record must be absent. Returns false on conflict.
	CompareAndSwap(ctx context.Context, key string, expect, value []byte) (bool, error)
}

// LoadJSON reads and decodes a record. An unreadable or corrupt record is
// reported as absent so callers restart from their zero state.
func LoadJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		logs.Warnf("store: corrupt record %q, starting from empty: %v", key, err)
		return false, nil
	}
	return true, nil
}

// SaveJSON encodes and writes a record.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, data)
}

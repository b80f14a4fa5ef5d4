package store

import (
	"bytes"
	"context"
	"sync"
)

// Memory is a mutex-guarded in-process store, used in tests and as the
// backing for single-process deployments that do not need durability.
type Memory struct {
	mu      sync.Mutex
	records map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.records[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

func (m *Memory) CompareAndSwap(_ context.Context, key string, expect, value []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.records[key]
	if expect == nil {
		if ok {
			return false, nil
		}
	} else if !ok || !bytes.Equal(current, expect) {
		return false, nil
	}
	m.records[key] = append([]byte(nil), value...)
	return true, nil
}

package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"main/internal/model"
)

// Memory is an in-process ledger used by tests and the paper pipeline.
type Memory struct {
	mu      sync.Mutex
	records []model.DecisionRecord
}

func NewMemory(records ...model.DecisionRecord) *Memory {
	m := &Memory{}
	m.Append(records...)
	return m
}

// Append adds closed decisions to the ledger.
func (m *Memory) Append(records ...model.DecisionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	sort.SliceStable(m.records, func(i, j int) bool {
		return m.records[i].ClosedAt.After(m.records[j].ClosedAt)
	})
}

func (m *Memory) RecentClosed(_ context.Context, after time.Time, limit int) ([]model.DecisionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.DecisionRecord, 0, limit)
	for _, r := range m.records {
		if !after.IsZero() && !r.ClosedAt.After(after) {
			continue
		}
		out = append(out, r)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Package queue buffers admitted signals between ingestion and the
// downstream evaluator: bounded, priority-ordered, deduplicating and
// rate-limited on the way out.
package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/store"
)

const recordKey = "queue"

// Config bounds the queue. Zero fields fall back to defaults.
type Config struct {
	Capacity    int           `json:"capacity"`
	DedupWindow time.Duration `json:"dedupWindow"`
	RateLimit   int           `json:"rateLimit"`
	RateWindow  time.Duration `json:"rateWindow"`
	HistorySize int           `json:"historySize"`
}

func (cfg Config) withDefaults() Config {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 20
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = 10 * time.Minute
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 30
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Hour
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 50
	}
	return cfg
}

type queueState struct {
	Entries   []model.QueueEntry     `json:"entries"`
	Processed []model.ProcessedEntry `json:"processed"`
	Dequeues  []time.Time            `json:"dequeues"`
	NextSeq   uint64                 `json:"nextSeq"`
}

// Status is a point-in-time queue summary.
type Status struct {
	Length           int                `json:"length"`
	Capacity         int                `json:"capacity"`
	Entries          []model.QueueEntry `json:"entries"`
	ProcessedCount   int                `json:"processedCount"`
	DequeuesInWindow int                `json:"dequeuesInWindow"`
	RateLimit        int                `json:"rateLimit"`
}

// Queue is the admission buffer. State persists after every mutation;
// a failed write is logged and the in-memory state stays authoritative
// for the current process.
type Queue struct {
	mu    sync.Mutex
	store store.Store
	cfg   Config
	state queueState
	now   func() time.Time
}

// New loads any persisted queue state; a missing or corrupt record starts
// the queue empty.
func New(ctx context.Context, s store.Store, cfg Config) (*Queue, error) {
	q := &Queue{store: s, cfg: cfg.withDefaults(), now: time.Now}
	if _, err := store.LoadJSON(ctx, s, recordKey, &q.state); err != nil {
		return nil, errors.Wrap(err, "read queue state")
	}
	return q, nil
}

// Enqueue offers a signal at the given priority. It returns false with a
// reason when refused: empty subject, duplicate within the dedup window,
// or at capacity for a non-CRITICAL priority. Admitting a CRITICAL entry
// at capacity evicts the single lowest-priority tail entry.
func (q *Queue) Enqueue(ctx context.Context, sig model.Signal, priority enum.Priority) (bool, string) {
	if !priority.IsAvailable() {
		return false, "invalid priority"
	}
	subject := sig.NormalizedSubject()
	if subject == "" {
		return false, "empty subject"
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	cutoff := now.Add(-q.cfg.DedupWindow)

	for _, e := range q.state.Entries {
		if e.Subject == subject && !e.EnqueuedAt.Before(cutoff) {
			return false, "duplicate: already queued"
		}
	}
	for _, p := range q.state.Processed {
		if p.Subject == subject && !p.DequeuedAt.Before(cutoff) {
			return false, "duplicate: recently processed"
		}
	}

	if len(q.state.Entries) >= q.cfg.Capacity && priority != enum.PriorityCritical {
		return false, "queue at capacity"
	}

	q.state.NextSeq++
	q.state.Entries = append(q.state.Entries, model.QueueEntry{
		ID:         uuid.NewString(),
		Signal:     sig,
		Subject:    subject,
		Priority:   priority,
		Seq:        q.state.NextSeq,
		EnqueuedAt: now,
	})
	sort.SliceStable(q.state.Entries, func(i, j int) bool {
		a, b := q.state.Entries[i], q.state.Entries[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.Seq < b.Seq
	})

	// Only a CRITICAL admission can land here over capacity; everything
	// else was refused above.
	if len(q.state.Entries) > q.cfg.Capacity {
		evicted := q.state.Entries[len(q.state.Entries)-1]
		q.state.Entries = q.state.Entries[:len(q.state.Entries)-1]
		logs.Warnf("queue: evicted %s (%s) for critical admission of %s",
			evicted.Subject, evicted.Priority, subject)
	}

	q.persist(ctx)
	return true, ""
}

// Dequeue pops the head entry unless the sliding rate ceiling is reached,
// in which case it returns nil with a reason and leaves the queue untouched.
func (q *Queue) Dequeue(ctx context.Context) (*model.QueueEntry, string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	if q.dequeuesSince(now.Add(-q.cfg.RateWindow)) >= q.cfg.RateLimit {
		return nil, "rate ceiling reached"
	}
	if len(q.state.Entries) == 0 {
		return nil, "queue empty"
	}

	head := q.state.Entries[0]
	q.state.Entries = q.state.Entries[1:]

	q.state.Processed = append(q.state.Processed, model.ProcessedEntry{
		Subject:     head.Subject,
		Priority:    head.Priority,
		EnqueuedAt:  head.EnqueuedAt,
		DequeuedAt:  now,
		WaitSeconds: now.Sub(head.EnqueuedAt).Seconds(),
	})
	if len(q.state.Processed) > q.cfg.HistorySize {
		q.state.Processed = q.state.Processed[len(q.state.Processed)-q.cfg.HistorySize:]
	}

	q.state.Dequeues = append(q.trimmedDequeues(now.Add(-q.cfg.RateWindow)), now)

	q.persist(ctx)
	return &head, ""
}

// Peek returns a copy of the head entry without mutating the queue.
func (q *Queue) Peek() *model.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.state.Entries) == 0 {
		return nil
	}
	head := q.state.Entries[0]
	return &head
}

// Status reports the current queue contents and rate window occupancy.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]model.QueueEntry, len(q.state.Entries))
	copy(entries, q.state.Entries)
	return Status{
		Length:           len(entries),
		Capacity:         q.cfg.Capacity,
		Entries:          entries,
		ProcessedCount:   len(q.state.Processed),
		DequeuesInWindow: q.dequeuesSince(q.now().Add(-q.cfg.RateWindow)),
		RateLimit:        q.cfg.RateLimit,
	}
}

// Clear resets the queue, history and rate window.
func (q *Queue) Clear(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.state = queueState{}
	q.persist(ctx)
}

func (q *Queue) dequeuesSince(cutoff time.Time) int {
	count := 0
	for _, t := range q.state.Dequeues {
		if !t.Before(cutoff) {
			count++
		}
	}
	return count
}

func (q *Queue) trimmedDequeues(cutoff time.Time) []time.Time {
	kept := q.state.Dequeues[:0]
	for _, t := range q.state.Dequeues {
		if !t.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

func (q *Queue) persist(ctx context.Context) {
	if err := store.SaveJSON(ctx, q.store, recordKey, q.state); err != nil {
		logs.Errorf("queue: persist failed, durability is best-effort: %v", err)
	}
}

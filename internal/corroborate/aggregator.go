// Package corroborate keeps a rolling time window of source observations
// per subject and classifies how many independent providers currently
// back each one.
package corroborate

import (
	"context"
	"sort"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/store"
)

const (
	recordKey     = "corroboration"
	DefaultWindow = 60 * time.Minute
)

// Result is the corroboration snapshot returned on registration or query.
type Result struct {
	Subject          string
	CrossSourceCount int
	Providers        []string
	Strength         enum.Strength
}

type windowState struct {
	Entries []model.CorroborationEntry `json:"entries"`
}

// Aggregator appends observations to the window and reports corroboration
// strength per subject. Entries are never mutated, only appended or pruned.
type Aggregator struct {
	store     store.Store
	providers ProviderTable
	window    time.Duration
	now       func() time.Time
}

func New(s store.Store, providers ProviderTable, window time.Duration) *Aggregator {
	if len(providers) == 0 {
		providers = DefaultProviderTable()
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Aggregator{store: s, providers: providers, window: window, now: time.Now}
}

// Register appends the signal to the window, prunes expired entries, and
// returns the corroboration result over the pruned window. An empty or
// invalid subject yields a degenerate NONE result and is not appended.
func (a *Aggregator) Register(ctx context.Context, sig model.Signal) (Result, error) {
	subject := sig.NormalizedSubject()
	if subject == "" {
		return Result{Strength: enum.StrengthNone}, nil
	}

	state, err := a.load(ctx)
	if err != nil {
		return Result{}, err
	}

	now := a.now()
	state.Entries = append(state.Entries, model.CorroborationEntry{
		Subject:   subject,
		Provider:  a.providers.Resolve(sig.Source),
		RawSource: sig.Source,
		Address:   sig.Address,
		SeenAt:    now,
	})
	state.Entries = pruneEntries(state.Entries, now.Add(-a.window))

	if err := store.SaveJSON(ctx, a.store, recordKey, state); err != nil {
		logs.Errorf("corroborate: persist window failed: %v", err)
	}

	return a.compute(state.Entries, subject, sig.Address), nil
}

// Query runs the same computation as Register without appending, for
// advisory checks that must not influence future corroboration counts.
func (a *Aggregator) Query(ctx context.Context, subject, address string) (Result, error) {
	subject = model.NormalizeSubject(subject)
	if subject == "" {
		return Result{Strength: enum.StrengthNone}, nil
	}

	state, err := a.load(ctx)
	if err != nil {
		return Result{}, err
	}
	entries := pruneEntries(state.Entries, a.now().Add(-a.window))
	return a.compute(entries, subject, address), nil
}

// Stats summarizes the current window.
type Stats struct {
	TotalEntries         int
	DistinctSubjects     int
	CorroboratedSubjects []string
}

// WindowStats reports window occupancy and the subjects currently backed
// by at least two distinct providers.
func (a *Aggregator) WindowStats(ctx context.Context) (Stats, error) {
	state, err := a.load(ctx)
	if err != nil {
		return Stats{}, err
	}
	entries := pruneEntries(state.Entries, a.now().Add(-a.window))

	providersBySubject := make(map[string]map[string]struct{})
	for _, e := range entries {
		set, ok := providersBySubject[e.Subject]
		if !ok {
			set = make(map[string]struct{})
			providersBySubject[e.Subject] = set
		}
		set[e.Provider] = struct{}{}
	}

	stats := Stats{TotalEntries: len(entries), DistinctSubjects: len(providersBySubject)}
	for subject, providers := range providersBySubject {
		if len(providers) >= 2 {
			stats.CorroboratedSubjects = append(stats.CorroboratedSubjects, subject)
		}
	}
	sort.Strings(stats.CorroboratedSubjects)
	return stats, nil
}

func (a *Aggregator) load(ctx context.Context) (windowState, error) {
	var state windowState
	if _, err := store.LoadJSON(ctx, a.store, recordKey, &state); err != nil {
		return windowState{}, errors.Wrap(err, "read corroboration window")
	}
	return state, nil
}

// compute collapses window entries matching the subject, or the non-empty
// address, down to distinct canonical providers.
func (a *Aggregator) compute(entries []model.CorroborationEntry, subject, address string) Result {
	providers := make(map[string]struct{})
	for _, e := range entries {
		matched := e.Subject == subject
		if !matched && address != "" && e.Address == address {
			matched = true
		}
		if matched && e.Provider != "" {
			providers[e.Provider] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(providers))
	for p := range providers {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	return Result{
		Subject:          subject,
		CrossSourceCount: len(sorted),
		Providers:        sorted,
		Strength:         enum.ClassifyStrength(len(sorted)),
	}
}

func pruneEntries(entries []model.CorroborationEntry, cutoff time.Time) []model.CorroborationEntry {
	kept := entries[:0]
	for _, e := range entries {
		if !e.SeenAt.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept
}

// Package gate runs the admission pipeline for one candidate signal:
// subject lock, corroboration registration, then the queue offer. Refusals
// are ordinary outcomes carried in the decision, never errors.
package gate

import (
	"context"
	"strings"

	"github.com/yanun0323/logs"

	"main/internal/corroborate"
	"main/internal/lock"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/queue"
)

// Action is the admission outcome.
type Action uint8

const (
	_action_beg Action = iota
	ActionAllow
	ActionDeny
	_action_end
)

func (a Action) IsAvailable() bool {
	return a > _action_beg && a < _action_end
}

func (a Action) String() string {
	switch a {
	case ActionAllow:
		return "ALLOW"
	case ActionDeny:
		return "DENY"
	default:
		return "UNKNOWN"
	}
}

// Decision is the result of one admission attempt.
type Decision struct {
	Action        Action
	Reason        string
	Subject       string
	Priority      enum.Priority
	Corroboration corroborate.Result
}

// Gate wires the lock, aggregator and queue into the admission flow.
type Gate struct {
	locker     *lock.Locker
	aggregator *corroborate.Aggregator
	queue      *queue.Queue
}

func New(locker *lock.Locker, aggregator *corroborate.Aggregator, q *queue.Queue) *Gate {
	return &Gate{locker: locker, aggregator: aggregator, queue: q}
}

// Admit gates one signal. A held lock drops the signal; otherwise the
// signal is registered for corroboration and offered to the queue at a
// priority derived from its urgency and corroboration strength.
func (g *Gate) Admit(ctx context.Context, sig model.Signal) Decision {
	subject := sig.NormalizedSubject()
	decision := Decision{Action: ActionDeny, Subject: subject}

	if subject == "" {
		decision.Reason = "empty subject"
		return decision
	}

	acquired, err := g.locker.Acquire(ctx, subject)
	if err != nil {
		logs.Errorf("gate: lock acquire for %s failed: %v", subject, err)
		decision.Reason = "lock unavailable"
		return decision
	}
	if !acquired {
		decision.Reason = "subject lock held"
		return decision
	}

	result, err := g.aggregator.Register(ctx, sig)
	if err != nil {
		// Corroboration is advisory; a failed read weakens the priority
		// but does not drop the signal.
		logs.Errorf("gate: corroboration for %s failed: %v", subject, err)
		result = corroborate.Result{Subject: subject, Strength: enum.StrengthNone}
	}
	decision.Corroboration = result
	decision.Priority = derivePriority(sig.Urgency, result.Strength)

	admitted, reason := g.queue.Enqueue(ctx, sig, decision.Priority)
	if !admitted {
		decision.Reason = reason
		return decision
	}

	decision.Action = ActionAllow
	return decision
}

// derivePriority prefers an explicit urgency; otherwise corroboration
// strength decides the tier.
func derivePriority(urgency string, strength enum.Strength) enum.Priority {
	if p, ok := enum.ParsePriority(strings.ToUpper(strings.TrimSpace(urgency))); ok {
		return p
	}
	switch strength {
	case enum.StrengthTawatur:
		return enum.PriorityHigh
	case enum.StrengthMashhur:
		return enum.PriorityNormal
	default:
		return enum.PriorityLow
	}
}

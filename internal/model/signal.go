package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/yanun0323/decimal"

	"main/internal/model/enum"
)

// Signal is a raw candidate event from a source connector.
// Price, Volume and Payload pass through opaquely to the evaluator.
type Signal struct {
	Subject   string          `json:"subject"`
	Source    string          `json:"source"`
	Address   string          `json:"address,omitempty"`
	Urgency   string          `json:"urgency,omitempty"`
	Price     decimal.Decimal `json:"price,omitempty"`
	Volume    decimal.Decimal `json:"volume,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	ArrivedAt time.Time       `json:"arrivedAt"`
}

// NormalizeSubject uppercases and strips whitespace so that "  pepe " and
// "PEPE" key the same lock, queue slot and corroboration entries.
func NormalizeSubject(subject string) string {
	return strings.ToUpper(strings.Join(strings.Fields(subject), " "))
}

// NormalizedSubject returns the canonical matching key for the signal.
func (s Signal) NormalizedSubject() string {
	return NormalizeSubject(s.Subject)
}

// QueueEntry is a signal admitted into the queue. Created on admission,
// destroyed on dequeue or eviction.
type QueueEntry struct {
	ID         string        `json:"id"`
	Signal     Signal        `json:"signal"`
	Subject    string        `json:"subject"`
	Priority   enum.Priority `json:"priority"`
	Seq        uint64        `json:"seq"`
	EnqueuedAt time.Time     `json:"enqueuedAt"`
}

// ProcessedEntry is the trimmed record kept after a dequeue, used for
// dedup against recently evaluated subjects.
type ProcessedEntry struct {
	Subject     string        `json:"subject"`
	Priority    enum.Priority `json:"priority"`
	EnqueuedAt  time.Time     `json:"enqueuedAt"`
	DequeuedAt  time.Time     `json:"dequeuedAt"`
	WaitSeconds float64       `json:"waitSeconds"`
}

// CorroborationEntry is one immutable observation inside the rolling window.
type CorroborationEntry struct {
	Subject   string    `json:"subject"`
	Provider  string    `json:"provider"`
	RawSource string    `json:"rawSource"`
	Address   string    `json:"address,omitempty"`
	SeenAt    time.Time `json:"seenAt"`
}

// DecisionRecord is a closed downstream decision, read from the external
// ledger. Lifecycle is owned entirely by the ledger.
type DecisionRecord struct {
	Verdict    enum.Verdict `json:"verdict"`
	Confidence int          `json:"confidence"`
	ClosedAt   time.Time    `json:"closedAt"`
}

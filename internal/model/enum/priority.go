package enum

// Priority orders queue entries; lower value drains first.
type Priority uint8

const (
	_priority_beg Priority = iota
	PriorityCritical
	PriorityHigh
	PriorityNormal
	PriorityLow
	_priority_end
)

func (p Priority) IsAvailable() bool {
	return p > _priority_beg && p < _priority_end
}

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityNormal:
		return "NORMAL"
	case PriorityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// ParsePriority maps a tier name to a Priority.
func ParsePriority(s string) (Priority, bool) {
	switch s {
	case "CRITICAL":
		return PriorityCritical, true
	case "HIGH":
		return PriorityHigh, true
	case "NORMAL":
		return PriorityNormal, true
	case "LOW":
		return PriorityLow, true
	default:
		return _priority_beg, false
	}
}

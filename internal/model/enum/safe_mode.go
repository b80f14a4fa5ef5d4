package enum

// SafeMode is the sub-state of a tripped safety flag.
type SafeMode string

const (
	SafeModeActive   SafeMode = "ACTIVE"
	SafeModeRecovery SafeMode = "RECOVERY"
)

func (m SafeMode) IsAvailable() bool {
	switch m {
	case SafeModeActive, SafeModeRecovery:
		return true
	default:
		return false
	}
}

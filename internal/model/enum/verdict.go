package enum

// Verdict is the outcome of a closed downstream decision.
type Verdict string

const (
	VerdictApprove Verdict = "APPROVE"
	VerdictReject  Verdict = "REJECT"
	VerdictRevise  Verdict = "REVISE"
)

func (v Verdict) IsAvailable() bool {
	switch v {
	case VerdictApprove, VerdictReject, VerdictRevise:
		return true
	default:
		return false
	}
}

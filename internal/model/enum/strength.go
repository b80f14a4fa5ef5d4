package enum

// Strength classifies how many independent providers back a subject.
type Strength uint8

const (
	_strength_beg Strength = iota
	StrengthNone
	StrengthAhad
	StrengthMashhur
	StrengthTawatur
	_strength_end
)

func (s Strength) IsAvailable() bool {
	return s > _strength_beg && s < _strength_end
}

func (s Strength) String() string {
	switch s {
	case StrengthNone:
		return "NONE"
	case StrengthAhad:
		return "AHAD"
	case StrengthMashhur:
		return "MASHHUR"
	case StrengthTawatur:
		return "TAWATUR"
	default:
		return "UNKNOWN"
	}
}

// ClassifyStrength maps a distinct-provider count to a Strength.
func ClassifyStrength(providers int) Strength {
	switch {
	case providers >= 3:
		return StrengthTawatur
	case providers == 2:
		return StrengthMashhur
	case providers == 1:
		return StrengthAhad
	default:
		return StrengthNone
	}
}

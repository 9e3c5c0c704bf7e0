package mastery

// Strength is the derived mastery tier of a concept.
type Strength string

const (
	NotStarted Strength = "not_started"
	Struggling Strength = "struggling"
	Okay       Strength = "okay"
	Strong     Strength = "strong"
)

// StrengthFor derives the tier from attempt counts: ratio >= 0.8 is strong,
// >= 0.5 okay, below that struggling, and no attempts not started.
func StrengthFor(correct, total int) Strength {
	if total <= 0 {
		return NotStarted
	}
	// Integer comparisons keep the boundaries exact: 4/5 is strong, 1/2 okay.
	switch {
	case 5*correct >= 4*total:
		return Strong
	case 2*correct >= total:
		return Okay
	default:
		return Struggling
	}
}

// Label returns a human-readable name.
func (s Strength) Label() string {
	switch s {
	case Strong:
		return "Strong"
	case Okay:
		return "Okay"
	case Struggling:
		return "Struggling"
	default:
		return "Not started"
	}
}

// weakRank orders remediation tiers; lower is weaker.
func (s Strength) weakRank() int {
	switch s {
	case Struggling:
		return 0
	case Okay:
		return 1
	default:
		return 2
	}
}

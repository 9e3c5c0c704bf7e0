// Package concepts holds the catalog of financial-literacy concepts that
// mastery is tracked against.
package concepts

// Strand groups related concepts.
type Strand string

const (
	StrandEarning   Strand = "earning"
	StrandSpending  Strand = "spending"
	StrandSaving    Strand = "saving"
	StrandCredit    Strand = "credit"
	StrandInvesting Strand = "investing"
)

// AllStrands returns all strands in display order.
func AllStrands() []Strand {
	return []Strand{
		StrandEarning,
		StrandSpending,
		StrandSaving,
		StrandCredit,
		StrandInvesting,
	}
}

// StrandDisplayName returns a human-readable name for a strand.
func StrandDisplayName(s Strand) string {
	switch s {
	case StrandEarning:
		return "Earning & Income"
	case StrandSpending:
		return "Spending & Budgeting"
	case StrandSaving:
		return "Saving"
	case StrandCredit:
		return "Credit & Borrowing"
	case StrandInvesting:
		return "Investing"
	default:
		return string(s)
	}
}

// Concept is one unit of mastery tracking.
type Concept struct {
	ID            string
	Name          string
	Description   string
	Strand        Strand
	Keywords      []string
	Prerequisites []string
}

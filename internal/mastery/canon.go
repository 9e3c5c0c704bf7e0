package mastery

import "strings"

// aliases collapses spelling variants onto one canonical id. Keys are
// already in canonical character form; no target is itself a key.
var aliases = map[string]string{
	"salestax":          "sales_tax",
	"sales_taxes":       "sales_tax",
	"compoundinterest":  "compound_interest",
	"simpleinterest":    "simple_interest",
	"creditscore":       "credit_score",
	"credit_scores":     "credit_score",
	"creditcard":        "credit_cards",
	"creditcards":       "credit_cards",
	"credit_card":       "credit_cards",
	"netpay":            "net_pay",
	"take_home_pay":     "net_pay",
	"grosspay":          "gross_pay",
	"unitprice":         "unit_price",
	"unit_pricing":      "unit_price",
	"percent":           "percentages",
	"percents":          "percentages",
	"percentage":        "percentages",
	"discount":          "discounts",
	"budget":            "budgeting",
	"tips":              "tipping",
	"emergencyfund":     "emergency_fund",
	"loan":              "loans",
	"payroll_tax":       "payroll_taxes",
	"investing":         "investing_basics",
	"investment_basics": "investing_basics",
}

// Canonicalize maps a concept key to its canonical id: lowercase, every rune
// outside [a-z0-9] replaced by '_', then alias lookup. Surrounding spaces
// are replaced like any other rune; use conceptID for user input.
// Canonicalize(Canonicalize(k)) == Canonicalize(k) for every k.
func Canonicalize(key string) string {
	lower := strings.ToLower(key)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	id := b.String()
	if target, ok := aliases[id]; ok {
		return target
	}
	return id
}

// conceptID canonicalizes user-supplied input, which may carry stray
// surrounding whitespace. ok is false when nothing but separators remain.
func conceptID(input string) (id string, ok bool) {
	id = Canonicalize(strings.TrimSpace(input))
	return id, strings.Trim(id, "_") != ""
}

// Package grading checks learner answers: a quick heuristic for numeric
// practice questions and model-backed batch evaluation for open-ended ones.
package grading

import "strings"

var answerReplacer = strings.NewReplacer("$", "", ",", "")

// NormalizeAnswer trims, lowercases, and strips dollar signs and thousands
// separators.
func NormalizeAnswer(s string) string {
	return strings.TrimSpace(answerReplacer.Replace(strings.ToLower(strings.TrimSpace(s))))
}

// CheckAnswer reports whether submitted matches expected after
// normalization: equal, or either contains the other. The containment rule
// is deliberately loose ("75" accepts "7" and "1,750") and an empty
// submission is never correct.
func CheckAnswer(submitted, expected string) bool {
	s, e := NormalizeAnswer(submitted), NormalizeAnswer(expected)
	if s == "" || e == "" {
		return false
	}
	return s == e || strings.Contains(s, e) || strings.Contains(e, s)
}

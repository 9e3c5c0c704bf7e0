package session

import (
	"regexp"
	"strings"

	"github.com/abhisek/fintutor/internal/mastery"
)

// Question is a pending practice question embedded in a tutor reply.
type Question struct {
	Concept string `json:"concept"`
	Answer  string `json:"answer"`
}

var (
	// markerRE matches every marker-shaped span, well-formed or not. The body
	// may hold one level of balanced brackets, as in "[1,2]".
	markerRE     = regexp.MustCompile(`(?i)\[\s*question\s*:((?:[^\[\]]|\[[^\[\]]*\])*)\]`)
	multiSpaceRE = regexp.MustCompile(`[ \t]{2,}`)
	blankLinesRE = regexp.MustCompile(`\n{3,}`)
)

// ParseReply strips question markers from a tutor reply and returns the
// display text plus the embedded question. A question is returned only when
// the reply carries exactly one well-formed marker: "[QUESTION: concept |
// answer]" with both parts non-empty.
func ParseReply(reply string) (string, *Question) {
	var found []Question
	for _, m := range markerRE.FindAllStringSubmatch(reply, -1) {
		if q, ok := parseMarkerBody(m[1]); ok {
			found = append(found, q)
		}
	}

	text := markerRE.ReplaceAllString(reply, "")
	text = multiSpaceRE.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	text = blankLinesRE.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	text = strings.TrimSpace(text)

	if len(found) != 1 {
		return text, nil
	}
	return text, &found[0]
}

func parseMarkerBody(body string) (Question, bool) {
	concept, answer, ok := strings.Cut(body, "|")
	if !ok {
		return Question{}, false
	}
	answer = strings.TrimSpace(answer)
	id := mastery.Canonicalize(strings.TrimSpace(concept))
	if answer == "" || strings.Trim(id, "_") == "" {
		return Question{}, false
	}
	return Question{Concept: id, Answer: answer}, true
}

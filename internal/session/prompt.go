package session

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/fintutor/internal/concepts"
)

// Completion phrases the tutor uses to close a session.
var completionPhrases = []string{"session complete", "great work today"}

// End commands a learner can type to finish early.
var endCommands = []string{"end session", "/end", "end"}

// FallbackMessage is shown when the tutor cannot be reached.
const FallbackMessage = "Hmm, I couldn't reach your tutor just now. Take a breath and send that again in a moment!"

var systemTemplate = template.Must(template.New("system").Parse(`You are a friendly, encouraging financial-literacy tutor for teenagers.

Today's topics:
{{range .Topics}}- {{.Name}}{{if .Description}}: {{.Description}}{{end}}{{if .BuildsOn}} (builds on {{.BuildsOn}}){{end}}
{{end}}
How to run the session:
- Ask one short practice question at a time, using realistic money situations (paychecks, shopping, saving, credit).
- Every question with a single correct answer ends with a marker on its own line:
  [QUESTION: <concept_id> | <correct answer>]
  where concept_id is one of: {{.IDs}}
  and the correct answer is short, for example "1.05" or "net pay".
- Never reveal the marker's answer before the learner responds.
- After each answer, say briefly whether it was right, explain the idea in one or two sentences, then ask the next question.
- Aim for {{.Min}} to {{.Max}} questions. When you are done, summarise what the learner practised and say "Great work today!"
- Keep replies under 120 words.`))

type topicView struct {
	ID          string
	Name        string
	Description string
	BuildsOn    string
}

func buildSystemPrompt(topics []string, maxQuestions int) (string, error) {
	views := make([]topicView, len(topics))
	for i, id := range topics {
		v := topicView{ID: id, Name: id}
		if c, err := concepts.Get(id); err == nil {
			v.Name = c.Name
			v.Description = c.Description
		}
		if pres := concepts.Prerequisites(id); len(pres) > 0 {
			names := make([]string, len(pres))
			for j, p := range pres {
				names[j] = p.Name
			}
			v.BuildsOn = strings.Join(names, " and ")
		}
		views[i] = v
	}
	minQ := 5
	if maxQuestions < minQ {
		minQ = maxQuestions
	}
	var buf bytes.Buffer
	err := systemTemplate.Execute(&buf, struct {
		Topics   []topicView
		IDs      string
		Min, Max int
	}{views, strings.Join(topics, ", "), minQ, maxQuestions})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func startInstruction(topics []string) string {
	return fmt.Sprintf("Start a practice session on: %s. Greet me in one sentence and ask the first question.",
		strings.Join(topics, ", "))
}

// turnInstruction wraps the learner's input with grading context for the
// tutor.
func turnInstruction(input string, graded bool, wasCorrect bool, correct, attempted int, last, ending bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n[Tutor note: ", input)
	switch {
	case ending:
		b.WriteString("The learner asked to end the session. ")
	case graded && wasCorrect:
		b.WriteString("That answer was correct. ")
	case graded:
		b.WriteString("That answer was incorrect. ")
	}
	fmt.Fprintf(&b, "Score so far: %d of %d correct.", correct, attempted)
	if ending || last {
		b.WriteString(" Do not ask another question. Wrap up and say \"Great work today!\"")
	}
	b.WriteString("]")
	return b.String()
}

func isEndCommand(input string) bool {
	s := strings.Trim(strings.ToLower(strings.TrimSpace(input)), ".!")
	for _, c := range endCommands {
		if s == c {
			return true
		}
	}
	return false
}

func hasCompletionPhrase(reply string) bool {
	lower := strings.ToLower(reply)
	for _, p := range completionPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

package grading

// Status is the verdict for one open-ended answer.
type Status string

const (
	GoodEnough    Status = "good_enough"
	NeedsRevision Status = "needs_revision"
)

// QuestionType selects the acceptance rule the grader applies.
type QuestionType string

const (
	ConceptCheck QuestionType = "concept_check"
	Reflection   QuestionType = "reflection"
)

// Question is one open-ended item to grade.
type Question struct {
	ID            string       `json:"id" binding:"required"`
	Prompt        string       `json:"prompt" binding:"required"`
	StudentAnswer string       `json:"studentAnswer"`
	ConceptTags   []string     `json:"conceptTags,omitempty"`
	QuestionType  QuestionType `json:"questionType"`
	Rubric        string       `json:"rubric,omitempty"`
}

// Evaluation is the verdict for one question.
type Evaluation struct {
	QuestionID string `json:"questionId"`
	Status     Status `json:"status"`
	Feedback   string `json:"feedback"`
}

// Result is the outcome of grading a batch.
type Result struct {
	Evaluations []Evaluation `json:"evaluations"`
	AllAccepted bool         `json:"allAccepted"`
	// Fallback is set when the grader could not be used and every answer
	// was accepted by default.
	Fallback bool `json:"fallback"`
}

// FallbackFeedback is shown for every answer accepted by default.
const FallbackFeedback = "Nice work putting your thinking into words. Keep going!"

// FallbackResult accepts every question. Grading outages never block a
// learner.
func FallbackResult(questions []Question) Result {
	evals := make([]Evaluation, len(questions))
	for i, q := range questions {
		evals[i] = Evaluation{QuestionID: q.ID, Status: GoodEnough, Feedback: FallbackFeedback}
	}
	return Result{Evaluations: evals, AllAccepted: true, Fallback: true}
}

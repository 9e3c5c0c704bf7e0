package quiz

import "strings"

// Buffer accumulates attempts on the client until the quiz is submitted.
// It is not safe for concurrent use.
type Buffer struct {
	order   []string
	answers map[string]*Answer
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{answers: make(map[string]*Answer)}
}

// Record notes one attempt at a question. The latest answer and
// correctness win; attempts accumulate.
func (b *Buffer) Record(questionKey, submitted string, correct bool) {
	key := strings.TrimSpace(questionKey)
	if key == "" {
		return
	}
	a, ok := b.answers[key]
	if !ok {
		a = &Answer{QuestionKey: key}
		b.answers[key] = a
		b.order = append(b.order, key)
	}
	a.Attempts++
	a.SubmittedAnswer = submitted
	a.IsCorrect = correct
}

// Attempts returns how often a question has been tried.
func (b *Buffer) Attempts(questionKey string) int {
	if a, ok := b.answers[strings.TrimSpace(questionKey)]; ok {
		return a.Attempts
	}
	return 0
}

// Len returns the number of distinct questions recorded.
func (b *Buffer) Len() int { return len(b.order) }

// Answers returns the batch to submit, in first-attempt order.
func (b *Buffer) Answers() []Answer {
	out := make([]Answer, 0, len(b.order))
	for _, k := range b.order {
		out = append(out, *b.answers[k])
	}
	return out
}

// Reset clears the buffer after a successful submit.
func (b *Buffer) Reset() {
	b.order = nil
	b.answers = make(map[string]*Answer)
}

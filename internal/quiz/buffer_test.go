package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer(t *testing.T) {
	b := NewBuffer()
	b.Record("tip", "4", false)
	b.Record("tax", "0.50", true)
	b.Record("tip", "3", true)
	b.Record("  ", "x", true)

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 2, b.Attempts("tip"))
	assert.Equal(t, 0, b.Attempts("missing"))
	assert.Equal(t, []Answer{
		{QuestionKey: "tip", SubmittedAnswer: "3", Attempts: 2, IsCorrect: true},
		{QuestionKey: "tax", SubmittedAnswer: "0.50", Attempts: 1, IsCorrect: true},
	}, b.Answers())

	b.Reset()
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Answers())
}

package grading

import "github.com/abhisek/fintutor/internal/llm"

// EvaluationArraySchema is the shape the grader's reply must contain.
var EvaluationArraySchema = &llm.Schema{
	Name: "answer-evaluations",
	Definition: map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"questionId": map[string]any{
					"type":        "string",
					"description": "The id of the evaluated question",
				},
				"status": map[string]any{
					"type":        "string",
					"description": "good_enough or needs_revision",
				},
				"feedback": map[string]any{
					"type":        "string",
					"description": "One or two encouraging sentences for the learner",
				},
			},
			"required":             []any{"status", "feedback"},
			"additionalProperties": true,
		},
	},
}

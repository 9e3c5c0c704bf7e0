package llm

import (
	"encoding/json"
	"testing"
)

var scoreSchema = &Schema{
	Name: "test_scores",
	Definition: map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"isCorrect": map[string]any{"type": "boolean"},
				"feedback":  map[string]any{"type": "string"},
			},
			"required": []string{"isCorrect", "feedback"},
		},
	},
}

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"valid", `[{"isCorrect": true, "feedback": "Nice"}]`, true},
		{"empty array", `[]`, true},
		{"missing field", `[{"isCorrect": true}]`, false},
		{"wrong type", `[{"isCorrect": "yes", "feedback": "x"}]`, false},
		{"not json", `[{"isCorrect": tr`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON(scoreSchema, json.RawMessage(tt.raw))
			if tt.valid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.valid && KindOf(err) != FailureMalformed {
				t.Fatalf("kind = %q, want malformed (err %v)", KindOf(err), err)
			}
		})
	}
}

func TestValidateJSON_NilSchemaOnlyParses(t *testing.T) {
	if err := ValidateJSON(nil, json.RawMessage(`{"anything": 1}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if KindOf(ValidateJSON(nil, json.RawMessage(`nope`))) != FailureMalformed {
		t.Fatal("expected malformed for non-JSON")
	}
}

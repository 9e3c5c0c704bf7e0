package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestChatServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server.URL + "/v1"
}

func chatReply(w http.ResponseWriter, content, finish string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	})
}

func TestOpenAIProvider_TutorTurn(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	url := newTestChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		chatReply(w, "What is 15% of $40? [QUESTION: tipping | 6]", "stop")
	})
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-mini", BaseURL: url})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	resp, err := p.Generate(context.Background(), Request{
		Purpose:   PurposeTutor,
		SessionID: "sess-1",
		System:    "You are a personal finance tutor.",
		Messages:  []Message{{Role: RoleUser, Content: "Start on tipping."}},
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "What is 15% of $40? [QUESTION: tipping | 6]" || resp.Truncated {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if body.Model != "gpt-4o-mini" {
		t.Fatalf("alias not resolved, sent %q", body.Model)
	}
	if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", body.Messages)
	}
}

func TestOpenAIProvider_GradingTruncated(t *testing.T) {
	url := newTestChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(w, `[{"isCorrect": tr`, "length")
	})
	p, _ := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-mini", BaseURL: url})

	resp, err := p.Generate(context.Background(), Request{Purpose: PurposeGrading, Messages: []Message{{Role: RoleUser, Content: "grade"}}, MaxTokens: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Truncated {
		t.Fatal("expected length finish to be truncated")
	}
}

func TestOpenAIProvider_FailureKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   FailureKind
	}{
		{"rate limit", http.StatusTooManyRequests, FailureRateLimited},
		{"server error", http.StatusBadGateway, FailureUnavailable},
		{"unknown model", http.StatusNotFound, FailureRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := newTestChatServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": "nope", "type": "error"},
				})
			})
			p, _ := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-mini", BaseURL: url})

			_, err := p.Generate(context.Background(), Request{Purpose: PurposeTutor, Messages: []Message{{Role: RoleUser, Content: "hi"}}})
			if got := KindOf(err); got != tt.want {
				t.Fatalf("kind = %q, want %q (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestOpenAIProvider_NoChoicesIsMalformed(t *testing.T) {
	url := newTestChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "x", "object": "chat.completion", "choices": []any{}})
	})
	p, _ := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: "gpt-mini", BaseURL: url})

	_, err := p.Generate(context.Background(), Request{Purpose: PurposeTutor, Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if KindOf(err) != FailureMalformed {
		t.Fatalf("kind = %q, want malformed", KindOf(err))
	}
}

func TestOpenRouterProvider_PassesModelThrough(t *testing.T) {
	var model string
	url := newTestChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		model = body.Model
		chatReply(w, "ok", "stop")
	})
	p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "test-key", Model: "anthropic/claude-haiku-4-5", BaseURL: url})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if p.Name() != "openrouter" {
		t.Fatalf("name = %q", p.Name())
	}
	if _, err := p.Generate(context.Background(), Request{Purpose: PurposeGrading, Messages: []Message{{Role: RoleUser, Content: "x"}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model != "anthropic/claude-haiku-4-5" {
		t.Fatalf("model = %q", model)
	}
}

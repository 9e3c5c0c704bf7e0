package llm

import "context"

// Provider is one tutoring/grading model endpoint. Each Generate call is a
// single blocking round trip; failures are returned as *Error.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier requests are sent to.
	ModelID() string
}

// Named is implemented by providers that can report their vendor name.
type Named interface {
	Name() string
}

// ProviderName returns p's vendor name, or its model id when unnamed.
func ProviderName(p Provider) string {
	if n, ok := p.(Named); ok {
		return n.Name()
	}
	return p.ModelID()
}

// Purpose says which part of the engine is calling. It selects the
// per-purpose settings and labels the recorded event.
type Purpose string

const (
	PurposeTutor   Purpose = "tutor"
	PurposeGrading Purpose = "grading"
)

// Purposes lists every purpose in display order.
func Purposes() []Purpose {
	return []Purpose{PurposeTutor, PurposeGrading}
}

// Request is one prompt. Replies are always plain text; callers that want
// structure parse it out and check it with ValidateJSON.
type Request struct {
	Purpose Purpose

	// SessionID ties tutor turns of one practice session together in the
	// event log. Empty for grading batches.
	SessionID string

	System string

	// Messages is the conversation, oldest first. Practice sessions send the
	// whole transcript; grading sends a single user message.
	Messages []Message

	MaxTokens   int
	Temperature float64
}

// Message is a single turn in the conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Response is the model's reply.
type Response struct {
	Text  string
	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// Truncated is set when generation stopped at MaxTokens.
	Truncated bool
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

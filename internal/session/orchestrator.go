// Package session runs conversational practice sessions: it relays turns to
// the tutor model, extracts embedded questions, grades answers, and feeds
// results into mastery tracking.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/abhisek/fintutor/internal/apperr"
	"github.com/abhisek/fintutor/internal/auth"
	"github.com/abhisek/fintutor/internal/grading"
	"github.com/abhisek/fintutor/internal/llm"
	"github.com/abhisek/fintutor/internal/logger"
	"github.com/abhisek/fintutor/internal/mastery"
	"github.com/abhisek/fintutor/internal/telemetry"
)

// DefaultMaxQuestions caps a session when the config leaves it unset.
const DefaultMaxQuestions = 8

// MasteryRecorder is the part of the mastery service the orchestrator writes
// to.
type MasteryRecorder interface {
	RecordAttempts(ctx context.Context, userID string, results []mastery.Result) (*mastery.Progress, error)
	AddPracticeSession(ctx context.Context, userID string, s mastery.PracticeSession) (*mastery.Progress, error)
}

// Config holds orchestrator settings.
type Config struct {
	MaxQuestions int
	MaxTokens    int
	Temperature  float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxQuestions: DefaultMaxQuestions,
		MaxTokens:    512,
		Temperature:  0.7,
	}
}

// Conversation is the caller-held state of one session. The orchestrator
// keeps nothing between calls; the caller sends it back with each turn.
type Conversation struct {
	ID             string        `json:"id"`
	Topics         []string      `json:"topics"`
	Turns          []llm.Message `json:"turns"`
	Pending        *Question     `json:"pending,omitempty"`
	Attempted      int           `json:"attempted"`
	Correct        int           `json:"correct"`
	ConceptsWorked []string      `json:"conceptsWorked,omitempty"`
	StartedAt      time.Time     `json:"startedAt"`
	State          State         `json:"state"`
}

// TurnResult is what one Start or Respond call produces.
type TurnResult struct {
	Message         string       `json:"message"`
	IsQuestion      bool         `json:"isQuestion"`
	Question        *Question    `json:"question,omitempty"`
	WasCorrect      bool         `json:"wasCorrect"`
	SessionComplete bool         `json:"sessionComplete"`
	Fallback        bool         `json:"fallback"`
	Conversation    Conversation `json:"conversation"`
}

// RespondInput is one learner turn.
type RespondInput struct {
	Conversation Conversation `json:"conversation"`
	UserInput    string       `json:"userInput"`
}

// FallbackTurn is returned when the tutor fails. conv is handed back
// untouched so the same turn can be retried.
func FallbackTurn(conv Conversation) TurnResult {
	return TurnResult{Message: FallbackMessage, Fallback: true, Conversation: conv}
}

// Orchestrator drives practice sessions.
type Orchestrator struct {
	provider llm.Provider
	mastery  MasteryRecorder
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
}

// NewOrchestrator creates an orchestrator. mastery may be nil, in which case
// results are not recorded.
func NewOrchestrator(provider llm.Provider, m MasteryRecorder, cfg Config, log *logger.Logger) *Orchestrator {
	if cfg.MaxQuestions < 1 {
		cfg.MaxQuestions = DefaultMaxQuestions
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{provider: provider, mastery: m, cfg: cfg, log: log, now: time.Now}
}

// Start opens a session on the given topics and returns the tutor's first
// turn.
func (o *Orchestrator) Start(ctx context.Context, topics []string) (TurnResult, error) {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return TurnResult{}, err
	}
	topics = normalizeTopics(topics)
	if len(topics) == 0 {
		return TurnResult{}, apperr.InvalidInput("at least one topic is required")
	}

	ctx, span := telemetry.Tracer("session").Start(ctx, "session.start")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("session.topics", topics))

	idle := Conversation{Topics: topics, State: Idle}
	conv := idle
	conv.ID = uuid.NewString()
	conv.StartedAt = o.now()
	if err := conv.moveTo(AwaitingTutorStart); err != nil {
		return TurnResult{}, err
	}

	instruction := llm.Message{Role: llm.RoleUser, Content: startInstruction(topics)}
	reply, err := o.ask(ctx, conv.ID, topics, []llm.Message{instruction})
	if err != nil {
		o.tutorFailed(span, "tutor unavailable on start", err, "user_id", userID, "session_id", conv.ID)
		return FallbackTurn(idle), nil
	}

	text, q := ParseReply(reply)
	conv.Turns = []llm.Message{instruction, {Role: llm.RoleAssistant, Content: reply}}
	conv.Pending = q
	if err := conv.moveTo(AwaitingAnswer); err != nil {
		return TurnResult{}, err
	}
	span.SetAttributes(attribute.String("session.id", conv.ID), attribute.Bool("session.is_question", q != nil))

	return TurnResult{
		Message:      text,
		IsQuestion:   q != nil,
		Question:     q,
		Conversation: conv,
	}, nil
}

// Respond handles one learner turn: grades any pending question, relays the
// turn to the tutor, and decides whether the session is over.
func (o *Orchestrator) Respond(ctx context.Context, in RespondInput) (TurnResult, error) {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return TurnResult{}, err
	}
	input := strings.TrimSpace(in.UserInput)
	if input == "" {
		return TurnResult{}, apperr.InvalidInput("userInput is required")
	}
	before := in.Conversation
	if before.State != AwaitingAnswer {
		return TurnResult{}, apperr.InvalidInput(fmt.Sprintf("session is %s, not awaiting an answer", before.State))
	}
	topics := normalizeTopics(before.Topics)
	if len(topics) == 0 {
		return TurnResult{}, apperr.InvalidInput("conversation has no topics")
	}

	ctx, span := telemetry.Tracer("session").Start(ctx, "session.respond")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", before.ID))

	conv := before
	conv.Topics = topics
	conv.Turns = append([]llm.Message(nil), before.Turns...)
	conv.ConceptsWorked = append([]string(nil), before.ConceptsWorked...)
	if err := conv.moveTo(AwaitingTutorReply); err != nil {
		return TurnResult{}, err
	}

	ending := isEndCommand(input)
	graded := conv.Pending != nil && !ending
	wasCorrect := false
	if graded {
		wasCorrect = grading.CheckAnswer(input, conv.Pending.Answer)
		conv.Attempted++
		if wasCorrect {
			conv.Correct++
		}
	}
	last := conv.Attempted >= o.cfg.MaxQuestions

	userTurn := llm.Message{
		Role:    llm.RoleUser,
		Content: turnInstruction(input, graded, wasCorrect, conv.Correct, conv.Attempted, last, ending),
	}
	reply, err := o.ask(ctx, before.ID, topics, append(conv.Turns, userTurn))
	if err != nil {
		o.tutorFailed(span, "tutor unavailable on respond", err, "user_id", userID, "session_id", before.ID)
		return FallbackTurn(before), nil
	}

	if graded {
		o.recordAttempt(ctx, userID, conv.Pending.Concept, wasCorrect)
		conv.ConceptsWorked = appendUnique(conv.ConceptsWorked, conv.Pending.Concept)
	}

	text, q := ParseReply(reply)
	complete := ending || last || hasCompletionPhrase(reply)
	if complete {
		q = nil
	}
	conv.Turns = append(conv.Turns, userTurn, llm.Message{Role: llm.RoleAssistant, Content: reply})
	conv.Pending = q

	next := AwaitingAnswer
	if complete {
		next = Complete
	}
	if err := conv.moveTo(next); err != nil {
		return TurnResult{}, err
	}
	if complete {
		o.recordSession(ctx, userID, conv)
	}

	span.SetAttributes(
		attribute.Bool("session.was_correct", wasCorrect),
		attribute.Bool("session.complete", complete),
		attribute.Int("session.attempted", conv.Attempted),
	)

	return TurnResult{
		Message:         text,
		IsQuestion:      q != nil,
		Question:        q,
		WasCorrect:      wasCorrect,
		SessionComplete: complete,
		Conversation:    conv,
	}, nil
}

// ask performs the single tutor round trip for a turn.
func (o *Orchestrator) ask(ctx context.Context, sessionID string, topics []string, turns []llm.Message) (string, error) {
	if o.provider == nil {
		return "", llm.Fail(llm.FailureNotConfigured, "", errors.New("no tutor configured"))
	}
	system, err := buildSystemPrompt(topics, o.cfg.MaxQuestions)
	if err != nil {
		return "", fmt.Errorf("build tutor prompt: %w", err)
	}
	resp, err := o.provider.Generate(ctx, llm.Request{
		Purpose:     llm.PurposeTutor,
		SessionID:   sessionID,
		System:      system,
		Messages:    turns,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	reply := strings.TrimSpace(resp.Text)
	if reply == "" {
		return "", llm.Fail(llm.FailureMalformed, llm.ProviderName(o.provider), errors.New("empty tutor reply"))
	}
	return reply, nil
}

// tutorFailed records a failed tutor call. Routine failures (no provider,
// caller gone) log at debug.
func (o *Orchestrator) tutorFailed(span trace.Span, msg string, err error, keysAndValues ...any) {
	kind := llm.KindOf(err)
	span.RecordError(err)
	span.SetAttributes(attribute.String("llm.failure_kind", string(kind)))
	span.SetStatus(codes.Error, "tutor unavailable")

	kv := append(keysAndValues, "kind", string(kind), "error", err)
	if kind.Expected() {
		o.log.Debug(msg, kv...)
	} else {
		o.log.Warn(msg, kv...)
	}
}

func (o *Orchestrator) recordAttempt(ctx context.Context, userID, concept string, correct bool) {
	if o.mastery == nil {
		return
	}
	_, err := o.mastery.RecordAttempts(ctx, userID, []mastery.Result{{Concept: concept, Correct: correct}})
	if err != nil {
		o.log.Error("record practice attempt", "user_id", userID, "concept", concept, "error", err)
	}
}

func (o *Orchestrator) recordSession(ctx context.Context, userID string, conv Conversation) {
	if o.mastery == nil {
		return
	}
	dur := o.now().Sub(conv.StartedAt)
	if conv.StartedAt.IsZero() || dur < 0 {
		dur = 0
	}
	_, err := o.mastery.AddPracticeSession(ctx, userID, mastery.PracticeSession{
		ID:                 conv.ID,
		Date:               o.now(),
		ConceptsWorked:     conv.ConceptsWorked,
		QuestionsAttempted: conv.Attempted,
		QuestionsCorrect:   conv.Correct,
		DurationSeconds:    int(dur.Seconds()),
	})
	if err != nil {
		o.log.Error("record practice session", "user_id", userID, "session_id", conv.ID, "error", err)
	}
}

func (c *Conversation) moveTo(next State) error {
	if !CanTransition(c.State, next) {
		return apperr.Internal("session state", fmt.Errorf("illegal transition %s -> %s", c.State, next))
	}
	c.State = next
	return nil
}

func normalizeTopics(topics []string) []string {
	var out []string
	for _, t := range topics {
		id := mastery.Canonicalize(strings.TrimSpace(t))
		if strings.Trim(id, "_") == "" {
			continue
		}
		out = appendUnique(out, id)
	}
	return out
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

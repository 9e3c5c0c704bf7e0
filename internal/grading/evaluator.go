package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/abhisek/fintutor/internal/apperr"
	"github.com/abhisek/fintutor/internal/auth"
	"github.com/abhisek/fintutor/internal/llm"
	"github.com/abhisek/fintutor/internal/logger"
	"github.com/abhisek/fintutor/internal/telemetry"
)

// EvaluatorConfig holds generation settings for the grader.
type EvaluatorConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultEvaluatorConfig returns sensible defaults.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{
		MaxTokens:   1024,
		Temperature: 0.2,
	}
}

// Evaluator grades batches of open-ended answers with a model.
type Evaluator struct {
	provider llm.Provider
	cfg      EvaluatorConfig
	log      *logger.Logger
}

// NewEvaluator creates an evaluator. A nil provider is allowed; every batch
// then takes the fallback path.
func NewEvaluator(provider llm.Provider, cfg EvaluatorConfig, log *logger.Logger) *Evaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &Evaluator{provider: provider, cfg: cfg, log: log}
}

// rawEvaluation is one element of the grader's array.
type rawEvaluation struct {
	QuestionID string `json:"questionId"`
	Status     string `json:"status"`
	Feedback   string `json:"feedback"`
}

// Evaluate grades questions for the authenticated learner. Only caller
// errors are returned; every grader fault produces FallbackResult.
func (e *Evaluator) Evaluate(ctx context.Context, questions []Question, attemptNumber int) (Result, error) {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(questions) == 0 {
		return Result{}, apperr.InvalidInput("at least one question is required")
	}
	if attemptNumber < 1 {
		return Result{}, apperr.InvalidInput("attemptNumber must be at least 1")
	}
	for i, q := range questions {
		if strings.TrimSpace(q.ID) == "" {
			return Result{}, apperr.InvalidInput(fmt.Sprintf("question %d: id is required", i))
		}
	}

	ctx, span := telemetry.Tracer("grading").Start(ctx, "grading.evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.Int("grading.questions", len(questions)),
		attribute.Int("grading.attempt", attemptNumber),
	)

	fallback := func(msg string, err error) (Result, error) {
		kind := llm.KindOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		span.SetAttributes(
			attribute.Bool("grading.fallback", true),
			attribute.String("llm.failure_kind", string(kind)),
		)
		kv := []any{"user_id", userID, "kind", string(kind), "error", err, "questions", len(questions)}
		if kind.Expected() {
			e.log.Debug(msg, kv...)
		} else {
			e.log.Warn(msg, kv...)
		}
		return FallbackResult(questions), nil
	}

	if e.provider == nil {
		return fallback("grading without a provider, accepting all",
			llm.Fail(llm.FailureNotConfigured, "", errors.New("no grader configured")))
	}

	userMsg, err := buildEvaluationMessage(questions, attemptNumber)
	if err != nil {
		e.log.Error("build grading prompt", "error", err)
		return FallbackResult(questions), nil
	}

	resp, err := e.provider.Generate(ctx, llm.Request{
		Purpose:     llm.PurposeGrading,
		System:      evaluationSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: userMsg}},
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return fallback("grader unavailable, accepting all", err)
	}
	if resp.Truncated {
		return fallback("grader reply cut off, accepting all",
			llm.Fail(llm.FailureMalformed, llm.ProviderName(e.provider), fmt.Errorf("reply hit %d max tokens", e.cfg.MaxTokens)))
	}

	evals, err := parseEvaluations(resp.Text, questions)
	if err != nil {
		return fallback("grader reply unusable, accepting all", llm.Fail(llm.FailureMalformed, llm.ProviderName(e.provider), err))
	}

	all := true
	for _, ev := range evals {
		if ev.Status != GoodEnough {
			all = false
			break
		}
	}
	span.SetAttributes(attribute.Bool("grading.all_accepted", all))
	return Result{Evaluations: evals, AllAccepted: all}, nil
}

// parseEvaluations pulls the evaluation array out of the reply text and
// aligns it with questions.
func parseEvaluations(text string, questions []Question) ([]Evaluation, error) {
	raw, ok := ExtractFirstArray(text)
	if !ok {
		return nil, fmt.Errorf("no JSON array in reply")
	}
	if err := llm.ValidateJSON(EvaluationArraySchema, raw); err != nil {
		return nil, err
	}
	var items []rawEvaluation
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode evaluations: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("empty evaluation array")
	}
	if len(items) != len(questions) {
		return nil, fmt.Errorf("got %d evaluations for %d questions", len(items), len(questions))
	}

	byID := make(map[string]rawEvaluation, len(items))
	for _, it := range items {
		if it.QuestionID != "" {
			byID[it.QuestionID] = it
		}
	}

	evals := make([]Evaluation, len(questions))
	for i, q := range questions {
		it, ok := byID[q.ID]
		if !ok {
			it = items[i]
		}
		evals[i] = Evaluation{
			QuestionID: q.ID,
			Status:     normalizeStatus(it.Status),
			Feedback:   strings.TrimSpace(it.Feedback),
		}
	}
	return evals, nil
}

func normalizeStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case GoodEnough:
		return GoodEnough
	default:
		return NeedsRevision
	}
}

const evaluationSystemPrompt = `You are a supportive financial-literacy tutor grading short written answers from teenagers.

Rules:
- concept_check answers are good_enough when they show a basic understanding of the idea, even if the wording is informal.
- reflection answers are good_enough when they contain one or two substantive sentences connected to the prompt.
- When the attempt number is 2 or more, be lenient: any answer that shows effort is good_enough.
- Otherwise use needs_revision, with feedback that says what to add, never just "wrong".
- Feedback is one or two warm sentences addressed to the learner.

Reply with only a JSON array, one object per question in the order given:
[{"questionId": "...", "status": "good_enough" | "needs_revision", "feedback": "..."}]`

var evaluationUserTemplate = template.Must(template.New("evaluation").Funcs(template.FuncMap{
	"join": func(tags []string) string { return strings.Join(tags, ", ") },
}).Parse(`Attempt number: {{.Attempt}}{{if .Lenient}} (be lenient){{end}}

{{range $i, $q := .Questions}}Question {{$q.ID}} ({{if $q.QuestionType}}{{$q.QuestionType}}{{else}}concept_check{{end}})
Prompt: {{$q.Prompt}}
{{if $q.ConceptTags}}Concepts: {{join $q.ConceptTags}}
{{end}}{{if $q.Rubric}}Rubric: {{$q.Rubric}}
{{end}}Student answer: {{$q.StudentAnswer}}

{{end}}`))

func buildEvaluationMessage(questions []Question, attempt int) (string, error) {
	var buf bytes.Buffer
	err := evaluationUserTemplate.Execute(&buf, struct {
		Attempt   int
		Lenient   bool
		Questions []Question
	}{attempt, attempt >= 2, questions})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

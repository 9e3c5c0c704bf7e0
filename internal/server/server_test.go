package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/fintutor/internal/auth"
	"github.com/abhisek/fintutor/internal/grading"
	"github.com/abhisek/fintutor/internal/llm"
	"github.com/abhisek/fintutor/internal/mastery"
	"github.com/abhisek/fintutor/internal/quiz"
	"github.com/abhisek/fintutor/internal/session"
	"github.com/abhisek/fintutor/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	srv   *Server
	mock  *llm.MockProvider
	token string
	store *store.Store
}

func newHarness(t *testing.T, responses ...llm.MockResponse) *harness {
	t.Helper()
	st, err := store.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.QuestionCatalog().Upsert(context.Background(), []store.ActivityQuestion{
		{ID: "q-tax", ActivityKey: "shopping-trip", QuestionKey: "tax", QuestionText: "Tax on $10 at 5%?", CorrectAnswer: "0.50", ConceptTags: []string{"sales_tax"}},
	})
	require.NoError(t, err)

	verifier, err := auth.NewTokenVerifier("test-secret-test-secret-test-secret")
	require.NoError(t, err)
	token, err := verifier.Issue("learner-1", time.Hour)
	require.NoError(t, err)

	mock := llm.NewMockProvider(responses...)
	ms := mastery.NewService(st.ProgressRepo(), nil)
	srv, err := New(Deps{
		Mastery:      ms,
		Orchestrator: session.NewOrchestrator(mock, ms, session.DefaultConfig(), nil),
		Evaluator:    grading.NewEvaluator(mock, grading.DefaultEvaluatorConfig(), nil),
		Recorder:     quiz.NewRecorder(st.UserRepo(), st.QuizResultRepo(), st.QuestionCatalog(), ms, nil),
		Tokens:       verifier,
		CORSOrigins:  []string{"http://localhost:5173"},
	})
	require.NoError(t, err)
	return &harness{srv: srv, mock: mock, token: token, store: st}
}

func (h *harness) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnauthenticatedRejectedBeforeWork(t *testing.T) {
	h := newHarness(t, llm.TextResponse("should not be used"))

	paths := []struct{ method, path string }{
		{http.MethodGet, "/v1/mastery"},
		{http.MethodPost, "/v1/practice/start"},
		{http.MethodPost, "/v1/evaluate"},
		{http.MethodPost, "/v1/quiz/shopping-trip/submit"},
	}
	for _, p := range paths {
		rec := h.do(t, p.method, p.path, map[string]any{}, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, p.path)
		env := decode[ErrorEnvelope](t, rec)
		assert.Equal(t, "UNAUTHENTICATED", env.Error.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/mastery", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	assert.Zero(t, h.mock.CallCount())
	u, err := h.store.UserRepo().Get(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestMasteryRoutes(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/v1/mastery/attempts", map[string]any{
		"results": []map[string]any{
			{"concept": "salestax", "correct": false},
			{"concept": "sales_tax", "correct": false},
			{"concept": "tipping", "correct": true},
		},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[mastery.Progress](t, rec)
	assert.Equal(t, 2, p.Concepts["sales_tax"].Total)

	rec = h.do(t, http.MethodGet, "/v1/mastery/weak", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	weak := decode[struct {
		Concepts []mastery.ConceptScore `json:"concepts"`
	}](t, rec)
	require.Len(t, weak.Concepts, 1)
	assert.Equal(t, "sales_tax", weak.Concepts[0].Concept)

	rec = h.do(t, http.MethodGet, "/v1/mastery/strong", nil, true)
	strong := decode[struct {
		Concepts []mastery.ConceptScore `json:"concepts"`
	}](t, rec)
	require.Len(t, strong.Concepts, 1)
	assert.Equal(t, "tipping", strong.Concepts[0].Concept)

	rec = h.do(t, http.MethodGet, "/v1/mastery/suggestions?n=2", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	sug := decode[struct {
		Topics []string `json:"topics"`
	}](t, rec)
	require.Len(t, sug.Topics, 2)
	assert.Equal(t, "sales_tax", sug.Topics[0])

	rec = h.do(t, http.MethodGet, "/v1/mastery/suggestions?n=abc", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/v1/mastery/sessions", map[string]any{
		"conceptsWorked": []string{"sales_tax"}, "questionsAttempted": 2, "questionsCorrect": 1, "durationSeconds": 90,
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p = decode[mastery.Progress](t, rec)
	require.Len(t, p.Sessions, 1)
}

func TestValidationErrors(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/v1/mastery/attempts", map[string]any{"results": []any{}}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[ErrorEnvelope](t, rec)
	assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	assert.Contains(t, env.Error.Message, "Results")

	req := httptest.NewRequest(http.MethodPost, "/v1/practice/start", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+h.token)
	rec = httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPost, "/v1/evaluate", map[string]any{
		"questions":     []map[string]any{{"id": "q1", "prompt": "Why save?", "studentAnswer": "x"}},
		"attemptNumber": 0,
	}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPracticeFlow(t *testing.T) {
	h := newHarness(t,
		llm.TextResponse("Let's go! 5% tax on $20? [QUESTION: sales_tax | 1.00]"),
		llm.TextResponse("Correct! Great work today!"),
	)

	rec := h.do(t, http.MethodPost, "/v1/practice/start", map[string]any{"topics": []string{"sales tax"}}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	start := decode[session.TurnResult](t, rec)
	assert.True(t, start.IsQuestion)
	assert.NotContains(t, start.Message, "[QUESTION")
	assert.Equal(t, session.AwaitingAnswer, start.Conversation.State)

	rec = h.do(t, http.MethodPost, "/v1/practice/respond", map[string]any{
		"conversation": start.Conversation,
		"userInput":    "$1.00",
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	turn := decode[session.TurnResult](t, rec)
	assert.True(t, turn.WasCorrect)
	assert.True(t, turn.SessionComplete)

	rec = h.do(t, http.MethodGet, "/v1/mastery", nil, true)
	p := decode[mastery.Progress](t, rec)
	assert.Equal(t, 1, p.Concepts["sales_tax"].Correct)
	assert.Len(t, p.Sessions, 1)
}

func TestPracticeFallback(t *testing.T) {
	h := newHarness(t, llm.MockResponse{Err: errors.New("offline")})

	rec := h.do(t, http.MethodPost, "/v1/practice/start", map[string]any{"topics": []string{"budgeting"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[session.TurnResult](t, rec)
	assert.True(t, res.Fallback)
	assert.Equal(t, session.FallbackMessage, res.Message)
}

func TestEvaluateFailsOpen(t *testing.T) {
	h := newHarness(t, llm.TextResponse("I can't grade that right now."))

	rec := h.do(t, http.MethodPost, "/v1/evaluate", map[string]any{
		"questions": []map[string]any{
			{"id": "q1", "prompt": "What is a budget?", "studentAnswer": "a plan", "questionType": "concept_check"},
			{"id": "q2", "prompt": "Why save?", "studentAnswer": "emergencies", "questionType": "reflection"},
		},
		"attemptNumber": 1,
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[grading.Result](t, rec)
	assert.Len(t, res.Evaluations, 2)
	assert.True(t, res.AllAccepted)
}

func TestQuizRoutes(t *testing.T) {
	h := newHarness(t)

	body := map[string]any{"answers": []map[string]any{
		{"questionKey": "tax", "submittedAnswer": "0.50", "attempts": 2, "isCorrect": true},
		{"questionKey": "ghost", "submittedAnswer": "?", "attempts": 1, "isCorrect": false},
	}}
	rec := h.do(t, http.MethodPost, "/v1/quiz/shopping-trip/submit", body, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sub := decode[quiz.Submission](t, rec)
	assert.Equal(t, quiz.Summary{Total: 2, Correct: 1, Incorrect: 1}, sub.Summary)
	assert.Len(t, sub.Results, 1)

	rec = h.do(t, http.MethodGet, "/v1/quiz/results?activityKey=shopping-trip&questionKey=tax", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	hist := decode[struct {
		Results []resultView `json:"results"`
	}](t, rec)
	require.Len(t, hist.Results, 1)
	assert.Equal(t, "q-tax", hist.Results[0].QuestionID)
	assert.Equal(t, 2, hist.Results[0].Attempts)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodOptions, "/v1/mastery", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

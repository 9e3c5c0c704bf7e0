package quiz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/fintutor/internal/apperr"
	"github.com/abhisek/fintutor/internal/auth"
	"github.com/abhisek/fintutor/internal/logger"
	"github.com/abhisek/fintutor/internal/mastery"
	"github.com/abhisek/fintutor/internal/store"
)

type recordedMastery struct {
	results []mastery.Result
	err     error
}

func (m *recordedMastery) RecordAttempts(_ context.Context, _ string, results []mastery.Result) (*mastery.Progress, error) {
	m.results = append(m.results, results...)
	return &mastery.Progress{}, m.err
}

func setup(t *testing.T) (*Recorder, *store.Store, *recordedMastery, *observer.ObservedLogs) {
	t.Helper()
	st, err := store.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.QuestionCatalog().Upsert(context.Background(), []store.ActivityQuestion{
		{ID: "q-tax", ActivityKey: "shopping-trip", QuestionKey: "tax", QuestionText: "Tax on $10 at 5%?", CorrectAnswer: "0.50", ConceptTags: []string{"sales_tax"}},
		{ID: "q-tip", ActivityKey: "shopping-trip", QuestionKey: "tip", QuestionText: "15% tip on $20?", CorrectAnswer: "3", ConceptTags: []string{"tipping", "percentages"}},
		{ID: "q-net", ActivityKey: "paycheck", QuestionKey: "net", QuestionText: "Net pay?", CorrectAnswer: "800"},
	})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	m := &recordedMastery{}
	rec := NewRecorder(st.UserRepo(), st.QuizResultRepo(), st.QuestionCatalog(), m, logger.FromZap(zap.New(core)))
	return rec, st, m, logs
}

func userCtx() context.Context {
	return auth.WithUserID(context.Background(), "learner-1")
}

func TestSubmit(t *testing.T) {
	rec, st, m, logs := setup(t)

	sub, err := rec.Submit(userCtx(), "shopping-trip", []Answer{
		{QuestionKey: "tax", SubmittedAnswer: "$0.50", Attempts: 1, IsCorrect: true},
		{QuestionKey: "tip", SubmittedAnswer: "4", Attempts: 3, IsCorrect: false},
		{QuestionKey: "nope", SubmittedAnswer: "?", Attempts: 1, IsCorrect: false},
	})
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 3, Correct: 1, Incorrect: 2}, sub.Summary)
	require.Len(t, sub.Results, 2)
	assert.Equal(t, "q-tax", sub.Results[0].QuestionID)
	assert.NotEmpty(t, sub.Results[0].ResultID)
	assert.Equal(t, "q-tip", sub.Results[1].QuestionID)
	assert.Equal(t, 3, sub.Results[1].Attempts)

	assert.Equal(t, 1, logs.FilterMessage("quiz answer for unknown question skipped").Len())

	u, err := st.UserRepo().Get(context.Background(), "learner-1")
	require.NoError(t, err)
	require.NotNil(t, u)

	rows, err := st.QuizResultRepo().ListByUser(context.Background(), "learner-1", store.ResultQuery{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	assert.ElementsMatch(t, []mastery.Result{
		{Concept: "sales_tax", Correct: true},
		{Concept: "tipping", Correct: false},
		{Concept: "percentages", Correct: false},
	}, m.results)
}

func TestSubmit_DuplicateKeysAppend(t *testing.T) {
	rec, st, _, _ := setup(t)
	ctx := userCtx()

	_, err := rec.Submit(ctx, "shopping-trip", []Answer{{QuestionKey: "tax", SubmittedAnswer: "1", Attempts: 1}})
	require.NoError(t, err)
	_, err = rec.Submit(ctx, "shopping-trip", []Answer{{QuestionKey: "tax", SubmittedAnswer: "0.50", Attempts: 2, IsCorrect: true}})
	require.NoError(t, err)

	rows, err := st.QuizResultRepo().ListByUser(context.Background(), "learner-1", store.ResultQuery{QuestionID: "q-tax"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].IsCorrect)
	assert.False(t, rows[1].IsCorrect)
}

func TestSubmit_AllUnknownStillSummarises(t *testing.T) {
	rec, _, m, _ := setup(t)

	sub, err := rec.Submit(userCtx(), "paycheck", []Answer{
		{QuestionKey: "tax", IsCorrect: true},
		{QuestionKey: "gross", IsCorrect: false},
	})
	require.NoError(t, err)
	assert.Empty(t, sub.Results)
	assert.Equal(t, Summary{Total: 2, Correct: 1, Incorrect: 1}, sub.Summary)
	assert.Empty(t, m.results)
}

func TestSubmit_ZeroAttemptsStoredAsOne(t *testing.T) {
	rec, _, _, _ := setup(t)
	sub, err := rec.Submit(userCtx(), "paycheck", []Answer{{QuestionKey: "net", SubmittedAnswer: "800", IsCorrect: true}})
	require.NoError(t, err)
	require.Len(t, sub.Results, 1)
	assert.Equal(t, 1, sub.Results[0].Attempts)
}

func TestSubmit_MasteryFailureIsLogged(t *testing.T) {
	rec, _, m, logs := setup(t)
	m.err = errors.New("boom")

	sub, err := rec.Submit(userCtx(), "shopping-trip", []Answer{{QuestionKey: "tax", IsCorrect: true}})
	require.NoError(t, err)
	assert.Len(t, sub.Results, 1)
	assert.Equal(t, 1, logs.FilterMessage("record quiz mastery").Len())
}

func TestSubmit_Errors(t *testing.T) {
	rec, st, _, _ := setup(t)

	_, err := rec.Submit(context.Background(), "shopping-trip", []Answer{{QuestionKey: "tax"}})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = rec.Submit(userCtx(), " ", []Answer{{QuestionKey: "tax"}})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = rec.Submit(userCtx(), "shopping-trip", nil)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = rec.Submit(userCtx(), "shopping-trip", []Answer{{QuestionKey: ""}})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = rec.Submit(userCtx(), "shopping-trip", []Answer{{QuestionKey: "tax", Attempts: -1}})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	// Rejected calls leave no trace.
	u, err := st.UserRepo().Get(context.Background(), "learner-1")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestHistory(t *testing.T) {
	rec, _, _, _ := setup(t)
	ctx := userCtx()

	_, err := rec.Submit(ctx, "shopping-trip", []Answer{
		{QuestionKey: "tax", SubmittedAnswer: "1", Attempts: 1},
		{QuestionKey: "tip", SubmittedAnswer: "3", Attempts: 1, IsCorrect: true},
	})
	require.NoError(t, err)

	all, err := rec.History(ctx, HistoryQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	tax, err := rec.History(ctx, HistoryQuery{ActivityKey: "shopping-trip", QuestionKey: "tax"})
	require.NoError(t, err)
	require.Len(t, tax, 1)
	assert.Equal(t, "q-tax", tax[0].QuestionID)

	none, err := rec.History(ctx, HistoryQuery{ActivityKey: "shopping-trip", QuestionKey: "missing"})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = rec.History(ctx, HistoryQuery{QuestionKey: "tax"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = rec.History(context.Background(), HistoryQuery{})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

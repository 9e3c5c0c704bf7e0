// Package quiz records one-shot quiz submissions as append-only result rows.
package quiz

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/abhisek/fintutor/internal/apperr"
	"github.com/abhisek/fintutor/internal/auth"
	"github.com/abhisek/fintutor/internal/logger"
	"github.com/abhisek/fintutor/internal/mastery"
	"github.com/abhisek/fintutor/internal/store"
)

// Answer is the final state of one question after client-side retries.
type Answer struct {
	QuestionKey     string `json:"questionKey" binding:"required"`
	SubmittedAnswer string `json:"submittedAnswer"`
	Attempts        int    `json:"attempts"`
	IsCorrect       bool   `json:"isCorrect"`
}

// Echo is a stored answer as reported back to the caller.
type Echo struct {
	ResultID        string `json:"resultId"`
	QuestionKey     string `json:"questionKey"`
	QuestionID      string `json:"questionId"`
	SubmittedAnswer string `json:"submittedAnswer"`
	Attempts        int    `json:"attempts"`
	IsCorrect       bool   `json:"isCorrect"`
}

// Summary counts the submitted answers.
type Summary struct {
	Total     int `json:"total"`
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// Submission is the outcome of Submit.
type Submission struct {
	Results []Echo  `json:"results"`
	Summary Summary `json:"summary"`
}

// MasteryRecorder receives concept-tagged results.
type MasteryRecorder interface {
	RecordAttempts(ctx context.Context, userID string, results []mastery.Result) (*mastery.Progress, error)
}

// Recorder writes quiz submissions.
type Recorder struct {
	users   store.UserRepo
	results store.QuizResultRepo
	catalog store.QuestionCatalog
	mastery MasteryRecorder
	log     *logger.Logger
}

// NewRecorder creates a recorder. mastery may be nil.
func NewRecorder(users store.UserRepo, results store.QuizResultRepo, catalog store.QuestionCatalog, m MasteryRecorder, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{users: users, results: results, catalog: catalog, mastery: m, log: log}
}

// Submit stores one row per answer whose key resolves in the activity.
// Unknown keys are skipped. The summary always counts every submitted
// answer.
func (r *Recorder) Submit(ctx context.Context, activityKey string, answers []Answer) (Submission, error) {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return Submission{}, err
	}
	activityKey = strings.TrimSpace(activityKey)
	if activityKey == "" {
		return Submission{}, apperr.InvalidInput("activityKey is required")
	}
	if len(answers) == 0 {
		return Submission{}, apperr.InvalidInput("at least one answer is required")
	}
	keys := make([]string, 0, len(answers))
	for i, a := range answers {
		if strings.TrimSpace(a.QuestionKey) == "" {
			return Submission{}, apperr.InvalidInput(fmt.Sprintf("answer %d: questionKey is required", i))
		}
		if a.Attempts < 0 {
			return Submission{}, apperr.InvalidInput(fmt.Sprintf("answer %d: attempts must not be negative", i))
		}
		keys = append(keys, strings.TrimSpace(a.QuestionKey))
	}

	questions, err := r.catalog.QuestionsByKeys(ctx, activityKey, keys)
	if err != nil {
		return Submission{}, apperr.Internal("resolve questions", err)
	}
	if err := r.users.Upsert(ctx, userID); err != nil {
		return Submission{}, apperr.Internal("upsert user", err)
	}

	correct := lo.CountBy(answers, func(a Answer) bool { return a.IsCorrect })
	sub := Submission{
		Results: []Echo{},
		Summary: Summary{Total: len(answers), Correct: correct, Incorrect: len(answers) - correct},
	}
	var tagged []mastery.Result
	for _, a := range answers {
		key := strings.TrimSpace(a.QuestionKey)
		q, ok := questions[key]
		if !ok {
			r.log.Warn("quiz answer for unknown question skipped",
				"user_id", userID, "activity", activityKey, "question_key", key)
			continue
		}

		attempts := max(a.Attempts, 1)
		row := &store.QuizResult{
			UserID:          userID,
			QuestionID:      q.ID,
			IsCorrect:       a.IsCorrect,
			Attempts:        attempts,
			SubmittedAnswer: a.SubmittedAnswer,
		}
		if err := r.results.Append(ctx, row); err != nil {
			r.log.Error("append quiz result",
				"user_id", userID, "activity", activityKey, "question_key", key, "error", err)
			continue
		}
		sub.Results = append(sub.Results, Echo{
			ResultID:        row.ID,
			QuestionKey:     key,
			QuestionID:      q.ID,
			SubmittedAnswer: a.SubmittedAnswer,
			Attempts:        attempts,
			IsCorrect:       a.IsCorrect,
		})
		for _, tag := range q.ConceptTags {
			tagged = append(tagged, mastery.Result{Concept: tag, Correct: a.IsCorrect})
		}
	}

	if r.mastery != nil && len(tagged) > 0 {
		if _, err := r.mastery.RecordAttempts(ctx, userID, tagged); err != nil {
			r.log.Error("record quiz mastery", "user_id", userID, "activity", activityKey, "error", err)
		}
	}

	r.log.Info("quiz submitted",
		"user_id", userID, "activity", activityKey,
		"answers", sub.Summary.Total, "stored", len(sub.Results), "correct", sub.Summary.Correct)
	return sub, nil
}

// HistoryQuery filters History. QuestionKey requires ActivityKey.
type HistoryQuery struct {
	ActivityKey string
	QuestionKey string
	Limit       int
}

// History lists the caller's stored results, newest first.
func (r *Recorder) History(ctx context.Context, q HistoryQuery) ([]store.QuizResult, error) {
	userID, err := auth.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if q.Limit < 0 {
		return nil, apperr.InvalidInput("limit must not be negative")
	}

	var rq store.ResultQuery
	rq.Limit = q.Limit
	if key := strings.TrimSpace(q.QuestionKey); key != "" {
		if strings.TrimSpace(q.ActivityKey) == "" {
			return nil, apperr.InvalidInput("activityKey is required with questionKey")
		}
		found, err := r.catalog.QuestionsByKeys(ctx, strings.TrimSpace(q.ActivityKey), []string{key})
		if err != nil {
			return nil, apperr.Internal("resolve question", err)
		}
		question, ok := found[key]
		if !ok {
			return []store.QuizResult{}, nil
		}
		rq.QuestionID = question.ID
	}

	results, err := r.results.ListByUser(ctx, userID, rq)
	if err != nil {
		return nil, apperr.Internal("list quiz results", err)
	}
	return results, nil
}

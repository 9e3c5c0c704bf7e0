// Package mastery tracks per-user concept mastery: attempt counts, derived
// strength tiers, and a bounded history of practice sessions.
package mastery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/fintutor/internal/apperr"
	"github.com/abhisek/fintutor/internal/concepts"
	"github.com/abhisek/fintutor/internal/logger"
	"github.com/abhisek/fintutor/internal/store"
)

// MaxCASRetries bounds how often a read-modify-write is retried after losing
// a version race.
const MaxCASRetries = 5

// ErrTooManyConflicts is returned when every CAS attempt lost its race.
var ErrTooManyConflicts = errors.New("mastery: too many concurrent writers")

// Service reads and updates mastery progress.
type Service struct {
	repo  store.ProgressRepo
	log   *logger.Logger
	now   func() time.Time
	known []string
}

// NewService creates a mastery service over the given repo.
func NewService(repo store.ProgressRepo, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:  repo,
		log:   log,
		now:   time.Now,
		known: concepts.IDs(),
	}
}

// GetProgress returns the user's progress, or a fresh record covering every
// known concept when nothing is stored yet.
func (s *Service) GetProgress(ctx context.Context, userID string) (*Progress, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Unauthenticated()
	}
	return s.load(ctx, userID)
}

// RecordAttempts applies every result to the user's progress as a single
// atomic update.
func (s *Service) RecordAttempts(ctx context.Context, userID string, results []Result) (*Progress, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Unauthenticated()
	}
	if len(results) == 0 {
		return nil, apperr.InvalidInput("at least one result is required")
	}
	for i, r := range results {
		if _, ok := conceptID(r.Concept); !ok {
			return nil, apperr.InvalidInput(fmt.Sprintf("result %d: concept is required", i))
		}
	}
	return s.update(ctx, userID, func(p *Progress, now time.Time) {
		for _, r := range results {
			p.apply(r, now)
		}
	})
}

// AddPracticeSession appends a completed session, evicting the oldest beyond
// MaxSessions. Missing ids and dates are filled in.
func (s *Service) AddPracticeSession(ctx context.Context, userID string, session PracticeSession) (*Progress, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.Unauthenticated()
	}
	if session.QuestionsAttempted < 0 || session.QuestionsCorrect < 0 || session.DurationSeconds < 0 {
		return nil, apperr.InvalidInput("session counts must not be negative")
	}
	if session.QuestionsCorrect > session.QuestionsAttempted {
		return nil, apperr.InvalidInput("questionsCorrect exceeds questionsAttempted")
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	worked := make([]string, 0, len(session.ConceptsWorked))
	seen := make(map[string]bool, len(session.ConceptsWorked))
	for _, c := range session.ConceptsWorked {
		id, ok := conceptID(c)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		worked = append(worked, id)
	}
	session.ConceptsWorked = worked

	return s.update(ctx, userID, func(p *Progress, now time.Time) {
		if session.Date.IsZero() {
			session.Date = now
		}
		p.appendSession(session)
	})
}

// update runs mutate against a fresh read and commits it with a CAS on the
// stored version, retrying the whole cycle when another writer won.
func (s *Service) update(ctx context.Context, userID string, mutate func(*Progress, time.Time)) (*Progress, error) {
	for attempt := 1; attempt <= MaxCASRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := s.load(ctx, userID)
		if err != nil {
			return nil, err
		}
		now := s.now()
		mutate(p, now)
		p.LastUpdated = now

		data, err := json.Marshal(p)
		if err != nil {
			return nil, apperr.Internal("encode progress", err)
		}
		version, err := s.repo.CompareAndSwap(ctx, userID, p.Version, data)
		if errors.Is(err, store.ErrVersionConflict) {
			s.log.Debug("progress version conflict, retrying",
				"user_id", userID, "attempt", attempt, "version", p.Version)
			continue
		}
		if err != nil {
			return nil, apperr.Internal("save progress", err)
		}
		p.Version = version
		return p, nil
	}
	s.log.Warn("progress update abandoned", "user_id", userID, "attempts", MaxCASRetries)
	return nil, apperr.Internal("save progress", ErrTooManyConflicts)
}

func (s *Service) load(ctx context.Context, userID string) (*Progress, error) {
	rec, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("load progress", err)
	}
	if rec == nil {
		return newProgress(userID, s.known), nil
	}
	var p Progress
	if err := json.Unmarshal(rec.Data, &p); err != nil {
		return nil, apperr.Internal("decode progress", fmt.Errorf("user %s: %w", userID, err))
	}
	p.UserID = userID
	p.Version = rec.Version
	p.normalize(s.known)
	return &p, nil
}

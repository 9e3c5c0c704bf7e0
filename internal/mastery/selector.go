package mastery

import (
	"context"
	"sort"

	"github.com/samber/lo"

	"github.com/abhisek/fintutor/internal/concepts"
)

// RankWeak filters scores down to struggling and okay concepts, struggling
// first, then by ascending ratio, then by id.
func RankWeak(scores []ConceptScore) []ConceptScore {
	weak := lo.Filter(scores, func(c ConceptScore, _ int) bool {
		return c.Strength == Struggling || c.Strength == Okay
	})
	sort.SliceStable(weak, func(i, j int) bool {
		a, b := weak[i], weak[j]
		if a.Strength.weakRank() != b.Strength.weakRank() {
			return a.Strength.weakRank() < b.Strength.weakRank()
		}
		// Cross-multiplied to compare ratios without float rounding.
		lhs, rhs := a.Correct*b.Total, b.Correct*a.Total
		if lhs != rhs {
			return lhs < rhs
		}
		return a.Concept < b.Concept
	})
	return weak
}

// Scores flattens the progress map into a slice sorted by concept id.
func (p *Progress) Scores() []ConceptScore {
	out := lo.MapToSlice(p.Concepts, func(_ string, c *ConceptScore) ConceptScore { return *c })
	sort.Slice(out, func(i, j int) bool { return out[i].Concept < out[j].Concept })
	return out
}

// WeakConcepts returns the user's remediation candidates, weakest first.
func (s *Service) WeakConcepts(ctx context.Context, userID string) ([]ConceptScore, error) {
	p, err := s.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	return RankWeak(p.Scores()), nil
}

// StrongConcepts returns the concepts the user has mastered.
func (s *Service) StrongConcepts(ctx context.Context, userID string) ([]ConceptScore, error) {
	p, err := s.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(p.Scores(), func(c ConceptScore, _ int) bool {
		return c.Strength == Strong
	}), nil
}

// SuggestTopics picks up to n concept ids for the next session. Weak
// concepts come first; untouched concepts fill the remainder in curriculum
// order so a new learner still gets a sensible start.
func (s *Service) SuggestTopics(ctx context.Context, userID string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	p, err := s.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	topics := lo.Map(RankWeak(p.Scores()), func(c ConceptScore, _ int) string { return c.Concept })
	if len(topics) < n {
		for _, c := range concepts.TopologicalOrder() {
			if p.Score(c.ID).Strength == NotStarted {
				topics = append(topics, c.ID)
			}
		}
	}
	topics = lo.Uniq(topics)
	if len(topics) > n {
		topics = topics[:n]
	}
	return topics, nil
}

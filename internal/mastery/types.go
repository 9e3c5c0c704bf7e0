package mastery

import (
	"time"
)

// MaxSessions bounds the practice-session history kept per user.
const MaxSessions = 50

// ConceptScore is a user's performance on one concept.
type ConceptScore struct {
	Concept       string     `json:"concept"`
	Correct       int        `json:"correct"`
	Total         int        `json:"total"`
	LastPracticed *time.Time `json:"lastPracticed,omitempty"`
	Strength      Strength   `json:"strength"`
}

// Ratio returns correct/total, or 0 before any attempt.
func (c ConceptScore) Ratio() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Total)
}

// PracticeSession summarises one completed tutoring session.
type PracticeSession struct {
	ID                 string    `json:"id"`
	Date               time.Time `json:"date"`
	ConceptsWorked     []string  `json:"conceptsWorked"`
	QuestionsAttempted int       `json:"questionsAttempted"`
	QuestionsCorrect   int       `json:"questionsCorrect"`
	DurationSeconds    int       `json:"durationSeconds"`
}

// Progress is the full mastery record of one user.
type Progress struct {
	UserID      string                   `json:"userId"`
	Concepts    map[string]*ConceptScore `json:"concepts"`
	LastUpdated time.Time                `json:"lastUpdated"`
	Sessions    []PracticeSession        `json:"sessions"`

	// Version is the stored document version the record was read at.
	Version int64 `json:"-"`
}

// Result is one graded attempt on a concept.
type Result struct {
	Concept string `json:"concept"`
	Correct bool   `json:"correct"`
}

// Score returns the score for a concept, or a zero not-started score.
func (p *Progress) Score(concept string) ConceptScore {
	id, _ := conceptID(concept)
	if cs, ok := p.Concepts[id]; ok && cs != nil {
		return *cs
	}
	return ConceptScore{Concept: id, Strength: NotStarted}
}

// apply adds one attempt to the concept, creating it lazily.
func (p *Progress) apply(r Result, now time.Time) {
	id, _ := conceptID(r.Concept)
	cs, ok := p.Concepts[id]
	if !ok || cs == nil {
		cs = &ConceptScore{Concept: id}
		p.Concepts[id] = cs
	}
	cs.Total++
	if r.Correct {
		cs.Correct++
	}
	t := now
	cs.LastPracticed = &t
	cs.Strength = StrengthFor(cs.Correct, cs.Total)
}

// appendSession adds s and evicts the oldest entries beyond MaxSessions.
func (p *Progress) appendSession(s PracticeSession) {
	p.Sessions = append(p.Sessions, s)
	if over := len(p.Sessions) - MaxSessions; over > 0 {
		p.Sessions = append([]PracticeSession(nil), p.Sessions[over:]...)
	}
}

// normalize restores invariants after decoding: canonical keys, strength in
// agreement with the counts, and correct never above total.
func (p *Progress) normalize(known []string) {
	if p.Concepts == nil {
		p.Concepts = make(map[string]*ConceptScore)
	}
	for key, cs := range p.Concepts {
		if cs == nil {
			delete(p.Concepts, key)
			continue
		}
		id := Canonicalize(key)
		if id != key {
			delete(p.Concepts, key)
			if existing, ok := p.Concepts[id]; ok && existing != nil {
				existing.Correct += cs.Correct
				existing.Total += cs.Total
				if cs.LastPracticed != nil && (existing.LastPracticed == nil || cs.LastPracticed.After(*existing.LastPracticed)) {
					existing.LastPracticed = cs.LastPracticed
				}
				cs = existing
			}
			p.Concepts[id] = cs
		}
		cs.Concept = id
		if cs.Correct > cs.Total {
			cs.Correct = cs.Total
		}
		cs.Strength = StrengthFor(cs.Correct, cs.Total)
	}
	for _, id := range known {
		if _, ok := p.Concepts[id]; !ok {
			p.Concepts[id] = &ConceptScore{Concept: id, Strength: NotStarted}
		}
	}
	if len(p.Sessions) > MaxSessions {
		p.Sessions = p.Sessions[len(p.Sessions)-MaxSessions:]
	}
}

func newProgress(userID string, known []string) *Progress {
	p := &Progress{
		UserID:   userID,
		Concepts: make(map[string]*ConceptScore, len(known)),
	}
	p.normalize(known)
	return p
}

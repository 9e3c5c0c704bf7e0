package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/fintutor/internal/apperr"
	"github.com/abhisek/fintutor/internal/auth"
	"github.com/abhisek/fintutor/internal/grading"
	"github.com/abhisek/fintutor/internal/mastery"
	"github.com/abhisek/fintutor/internal/quiz"
	"github.com/abhisek/fintutor/internal/session"
)

const (
	defaultSuggestions = 3
	maxSuggestions     = 20
)

type attemptsRequest struct {
	Results []mastery.Result `json:"results" binding:"required,min=1"`
}

type startRequest struct {
	Topics []string `json:"topics" binding:"required,min=1"`
}

type respondRequest struct {
	Conversation session.Conversation `json:"conversation"`
	UserInput    string               `json:"userInput" binding:"required"`
}

type evaluateRequest struct {
	Questions     []grading.Question `json:"questions" binding:"required,min=1,dive"`
	AttemptNumber int                `json:"attemptNumber" binding:"required,min=1"`
}

type submitRequest struct {
	Answers []quiz.Answer `json:"answers" binding:"required,min=1,dive"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) getProgress(c *gin.Context) {
	p, err := s.deps.Mastery.GetProgress(c.Request.Context(), auth.UserIDFromContext(c.Request.Context()))
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) weakConcepts(c *gin.Context) {
	scores, err := s.deps.Mastery.WeakConcepts(c.Request.Context(), auth.UserIDFromContext(c.Request.Context()))
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"concepts": scores})
}

func (s *Server) strongConcepts(c *gin.Context) {
	scores, err := s.deps.Mastery.StrongConcepts(c.Request.Context(), auth.UserIDFromContext(c.Request.Context()))
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"concepts": scores})
}

func (s *Server) suggestions(c *gin.Context) {
	n := defaultSuggestions
	if raw := c.Query("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxSuggestions {
			respondError(c, s.log, apperr.InvalidInput("n must be between 1 and 20"))
			return
		}
		n = v
	}
	topics, err := s.deps.Mastery.SuggestTopics(c.Request.Context(), auth.UserIDFromContext(c.Request.Context()), n)
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

func (s *Server) recordAttempts(c *gin.Context) {
	var req attemptsRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.log, err)
		return
	}
	p, err := s.deps.Mastery.RecordAttempts(c.Request.Context(), auth.UserIDFromContext(c.Request.Context()), req.Results)
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) addSession(c *gin.Context) {
	var req mastery.PracticeSession
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.log, err)
		return
	}
	p, err := s.deps.Mastery.AddPracticeSession(c.Request.Context(), auth.UserIDFromContext(c.Request.Context()), req)
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) startPractice(c *gin.Context) {
	var req startRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.log, err)
		return
	}
	res, err := s.deps.Orchestrator.Start(c.Request.Context(), req.Topics)
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) respondPractice(c *gin.Context) {
	var req respondRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.log, err)
		return
	}
	res, err := s.deps.Orchestrator.Respond(c.Request.Context(), session.RespondInput{
		Conversation: req.Conversation,
		UserInput:    req.UserInput,
	})
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) evaluate(c *gin.Context) {
	var req evaluateRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.log, err)
		return
	}
	res, err := s.deps.Evaluator.Evaluate(c.Request.Context(), req.Questions, req.AttemptNumber)
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) submitQuiz(c *gin.Context) {
	var req submitRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, s.log, err)
		return
	}
	sub, err := s.deps.Recorder.Submit(c.Request.Context(), c.Param("activityKey"), req.Answers)
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

type resultView struct {
	ID              string `json:"id"`
	QuestionID      string `json:"questionId"`
	IsCorrect       bool   `json:"isCorrect"`
	Attempts        int    `json:"attempts"`
	SubmittedAnswer string `json:"submittedAnswer"`
	CreatedAt       string `json:"createdAt"`
}

func (s *Server) quizResults(c *gin.Context) {
	q := quiz.HistoryQuery{
		ActivityKey: c.Query("activityKey"),
		QuestionKey: c.Query("questionKey"),
	}
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, s.log, apperr.InvalidInput("limit must be a number"))
			return
		}
		q.Limit = v
	}
	results, err := s.deps.Recorder.History(c.Request.Context(), q)
	if err != nil {
		respondError(c, s.log, err)
		return
	}
	out := make([]resultView, len(results))
	for i, r := range results {
		out[i] = resultView{
			ID:              r.ID,
			QuestionID:      r.QuestionID,
			IsCorrect:       r.IsCorrect,
			Attempts:        r.Attempts,
			SubmittedAnswer: r.SubmittedAnswer,
			CreatedAt:       r.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

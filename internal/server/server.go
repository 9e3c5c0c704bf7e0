// Package server exposes the practice engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/abhisek/fintutor/internal/auth"
	"github.com/abhisek/fintutor/internal/grading"
	"github.com/abhisek/fintutor/internal/logger"
	"github.com/abhisek/fintutor/internal/mastery"
	"github.com/abhisek/fintutor/internal/quiz"
	"github.com/abhisek/fintutor/internal/session"
	"github.com/abhisek/fintutor/internal/telemetry"
)

// Deps are the services behind the routes.
type Deps struct {
	Mastery      *mastery.Service
	Orchestrator *session.Orchestrator
	Evaluator    *grading.Evaluator
	Recorder     *quiz.Recorder
	Tokens       *auth.TokenVerifier
	Log          *logger.Logger
	CORSOrigins  []string
}

// Server is the HTTP front end.
type Server struct {
	deps   Deps
	log    *logger.Logger
	engine *gin.Engine
}

// New builds the server and its routes.
func New(deps Deps) (*Server, error) {
	if deps.Mastery == nil || deps.Orchestrator == nil || deps.Evaluator == nil || deps.Recorder == nil {
		return nil, errors.New("server: all services are required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("server: token verifier is required")
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	s := &Server{deps: deps, log: deps.Log.With("component", "http")}
	s.engine = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(telemetry.ServiceName))
	r.Use(RequestLogger(s.log))
	if len(s.deps.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/healthz", s.health)

	v1 := r.Group("/v1")
	v1.Use(RequireAuth(s.deps.Tokens, s.log))
	{
		v1.GET("/mastery", s.getProgress)
		v1.GET("/mastery/weak", s.weakConcepts)
		v1.GET("/mastery/strong", s.strongConcepts)
		v1.GET("/mastery/suggestions", s.suggestions)
		v1.POST("/mastery/attempts", s.recordAttempts)
		v1.POST("/mastery/sessions", s.addSession)

		v1.POST("/practice/start", s.startPractice)
		v1.POST("/practice/respond", s.respondPractice)

		v1.POST("/evaluate", s.evaluate)

		v1.POST("/quiz/:activityKey/submit", s.submitQuiz)
		v1.GET("/quiz/results", s.quizResults)
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then drains within
// shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down", "timeout", shutdownTimeout.String())
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

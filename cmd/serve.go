package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/abhisek/fintutor/internal/auth"
	"github.com/abhisek/fintutor/internal/concepts"
	"github.com/abhisek/fintutor/internal/grading"
	"github.com/abhisek/fintutor/internal/logger"
	"github.com/abhisek/fintutor/internal/mastery"
	"github.com/abhisek/fintutor/internal/quiz"
	"github.com/abhisek/fintutor/internal/server"
	"github.com/abhisek/fintutor/internal/session"
	"github.com/abhisek/fintutor/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		if err := cfg.RequireJWTSecret(); err != nil {
			return err
		}

		log, err := logger.New(cfg.LogMode)
		if err != nil {
			return err
		}
		defer log.Sync()
		if cfg.LogMode == "prod" || cfg.LogMode == "production" {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint)
		if err != nil {
			return fmt.Errorf("set up tracing: %w", err)
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				log.Warn("tracing shutdown", "error", err)
			}
		}()

		if err := concepts.Validate(); err != nil {
			return fmt.Errorf("concept catalog: %w", err)
		}
		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		tokens, err := auth.NewTokenVerifier(cfg.JWTSecret)
		if err != nil {
			return err
		}

		provider := buildProvider(ctx, st, log)
		masterySvc := mastery.NewService(st.ProgressRepo(), log.With("component", "mastery"))
		sessCfg := session.DefaultConfig()
		sessCfg.MaxQuestions = cfg.MaxQuestions

		srv, err := server.New(server.Deps{
			Mastery:      masterySvc,
			Orchestrator: session.NewOrchestrator(provider, masterySvc, sessCfg, log.With("component", "session")),
			Evaluator:    grading.NewEvaluator(provider, grading.DefaultEvaluatorConfig(), log.With("component", "grading")),
			Recorder: quiz.NewRecorder(st.UserRepo(), st.QuizResultRepo(), st.QuestionCatalog(),
				masterySvc, log.With("component", "quiz")),
			Tokens:      tokens,
			Log:         log,
			CORSOrigins: cfg.CORSOrigins,
		})
		if err != nil {
			return err
		}
		return srv.ListenAndServe(ctx, cfg.Addr, cfg.ShutdownTimeout)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides FINTUTOR_ADDR)")
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/fintutor/internal/config"
	"github.com/abhisek/fintutor/internal/llm"
	"github.com/abhisek/fintutor/internal/logger"
	"github.com/abhisek/fintutor/internal/store"
)

// loadConfig reads the environment and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if mode, _ := cmd.Flags().GetString("log-mode"); mode != "" {
		cfg.LogMode = mode
	}
	return cfg, cfg.Validate()
}

// openStore resolves the database path and opens it.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// buildProvider returns the configured model provider, or nil when none is
// configured. Callers fall back to their offline behaviour on nil.
func buildProvider(ctx context.Context, st *store.Store, log *logger.Logger) llm.Provider {
	router, err := llm.NewProviderFromEnv(ctx, st.EventRepo(), log)
	if err != nil {
		log.Warn("LLM provider not configured, tutor and grader will use fallbacks",
			"kind", string(llm.KindOf(err)), "error", err)
		return nil
	}
	log.Info("LLM provider ready",
		"provider", router.Name(),
		"tutor_model", router.For(llm.PurposeTutor).ModelID(),
		"grading_model", router.For(llm.PurposeGrading).ModelID())
	return router
}

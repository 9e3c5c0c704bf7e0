package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/fintutor/internal/auth"
	"github.com/abhisek/fintutor/internal/logger"
	"github.com/abhisek/fintutor/internal/mastery"
	"github.com/abhisek/fintutor/internal/session"
	"github.com/abhisek/fintutor/internal/ui/theme"
)

var practiceCmd = &cobra.Command{
	Use:   "practice",
	Short: "Start a practice session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		user, _ := cmd.Flags().GetString("user")
		topics, _ := cmd.Flags().GetStringSlice("topics")

		log, err := logger.New(cfg.LogMode)
		if err != nil {
			return err
		}
		defer log.Sync()

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := auth.WithUserID(cmd.Context(), user)
		masterySvc := mastery.NewService(st.ProgressRepo(), log)
		if err := st.UserRepo().Upsert(ctx, user); err != nil {
			return fmt.Errorf("register learner: %w", err)
		}

		if len(topics) == 0 {
			n, _ := cmd.Flags().GetInt("suggest")
			topics, err = masterySvc.SuggestTopics(ctx, user, n)
			if err != nil {
				return err
			}
		}

		sessCfg := session.DefaultConfig()
		sessCfg.MaxQuestions = cfg.MaxQuestions
		orch := session.NewOrchestrator(buildProvider(ctx, st, log), masterySvc, sessCfg, log)
		return runPractice(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), orch, topics)
	},
}

// runPractice drives one session over a line-based terminal.
func runPractice(ctx context.Context, in io.Reader, out io.Writer, orch *session.Orchestrator, topics []string) error {
	fmt.Fprintln(out, theme.Title.Render("Practising: "+strings.Join(topics, ", ")))
	fmt.Fprintln(out, theme.Hint.Render("Type your answer and press enter. Type \"end\" to stop."))
	fmt.Fprintln(out)

	res, err := orch.Start(ctx, topics)
	if err != nil {
		return err
	}
	if res.Fallback {
		fmt.Fprintln(out, theme.Incorrect.Render(res.Message))
		return nil
	}
	fmt.Fprintln(out, theme.Tutor.Render(res.Message))

	conv := res.Conversation
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		res, err := orch.Respond(ctx, session.RespondInput{Conversation: conv, UserInput: input})
		if err != nil {
			return err
		}
		if res.Fallback {
			fmt.Fprintln(out, theme.Incorrect.Render(res.Message))
			continue
		}
		if res.Conversation.Attempted > conv.Attempted {
			if res.WasCorrect {
				fmt.Fprintln(out, theme.Correct.Render("✓ correct"))
			} else {
				fmt.Fprintln(out, theme.Incorrect.Render("✗ not quite"))
			}
		}
		fmt.Fprintln(out, theme.Tutor.Render(res.Message))
		conv = res.Conversation

		if res.SessionComplete {
			fmt.Fprintln(out)
			fmt.Fprintln(out, theme.Subtitle.Render(fmt.Sprintf("Session over: %d of %d correct.", conv.Correct, conv.Attempted)))
			return nil
		}
	}
}

func init() {
	practiceCmd.Flags().StringP("user", "u", "", "Learner id")
	practiceCmd.Flags().StringSliceP("topics", "t", nil, "Concepts to practise (default: suggested from mastery)")
	practiceCmd.Flags().Int("suggest", 3, "How many suggested topics to use when --topics is not given")
	_ = practiceCmd.MarkFlagRequired("user")
}

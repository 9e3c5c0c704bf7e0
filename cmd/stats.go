package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/fintutor/internal/mastery"
	"github.com/abhisek/fintutor/internal/ui/components"
	"github.com/abhisek/fintutor/internal/ui/theme"
)

const recentSessionsShown = 5

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a learner's mastery by concept",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		all, _ := cmd.Flags().GetBool("all")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := mastery.NewService(st.ProgressRepo(), nil).GetProgress(cmd.Context(), user)
		if err != nil {
			return err
		}
		renderStats(cmd.OutOrStdout(), p, all)
		return nil
	},
}

func renderStats(out io.Writer, p *mastery.Progress, all bool) {
	fmt.Fprintln(out, theme.Title.Render("Mastery for "+p.UserID))
	fmt.Fprintln(out)
	fmt.Fprintln(out, components.MasteryTable{Progress: p, Practiced: !all}.View())

	weak := mastery.RankWeak(p.Scores())
	if len(weak) > 0 {
		ids := make([]string, 0, len(weak))
		for _, w := range weak {
			ids = append(ids, w.Concept)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.Subtitle.Render("Practise next: "+strings.Join(ids, ", ")))
	}

	if len(p.Sessions) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.Title.Render("Recent sessions"))
	start := max(0, len(p.Sessions)-recentSessionsShown)
	for i := len(p.Sessions) - 1; i >= start; i-- {
		s := p.Sessions[i]
		fmt.Fprintf(out, "%s  %d/%d correct  %s\n",
			s.Date.Local().Format("2006-01-02 15:04"),
			s.QuestionsCorrect, s.QuestionsAttempted,
			theme.Hint.Render(strings.Join(s.ConceptsWorked, ", ")))
	}
}

func init() {
	statsCmd.Flags().StringP("user", "u", "", "Learner id")
	statsCmd.Flags().Bool("all", false, "Include concepts that have not been practised")
	_ = statsCmd.MarkFlagRequired("user")
}

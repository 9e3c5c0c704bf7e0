package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/fintutor/internal/llm"
	"github.com/abhisek/fintutor/internal/store"
	"github.com/abhisek/fintutor/internal/ui/theme"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect LLM request/response events",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		sessionID, _ := cmd.Flags().GetString("session")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose, SessionID: sessionID})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No LLM events found.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-8s  %-10s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Purpose", "Session", "Model", "In", "Out", "Ms", "Result")
		fmt.Fprintln(out, strings.Repeat("\u2500", 110))

		for _, e := range events {
			result := theme.Correct.Render("✓")
			if !e.Success {
				result = theme.Incorrect.Render("✗ " + e.FailureKind)
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-8s  %-10s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				shortID(e.SessionID),
				truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				result,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var id int
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		out := cmd.OutOrStdout()
		sep := strings.Repeat("\u2500", 60)

		fmt.Fprintf(out, "ID:        %d\n", e.ID)
		fmt.Fprintf(out, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Provider:  %s\n", e.Provider)
		fmt.Fprintf(out, "Model:     %s\n", e.Model)
		fmt.Fprintf(out, "Purpose:   %s\n", e.Purpose)
		if e.SessionID != "" {
			fmt.Fprintf(out, "Session:   %s\n", e.SessionID)
		}
		fmt.Fprintf(out, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Fprintf(out, "Latency:   %dms\n", e.LatencyMs)
		fmt.Fprintf(out, "Success:   %v\n", e.Success)
		if e.FailureKind != "" {
			fmt.Fprintf(out, "Failure:   %s\n", e.FailureKind)
		}
		if e.ErrorMessage != "" {
			fmt.Fprintf(out, "Error:     %s\n", e.ErrorMessage)
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, sep)
		fmt.Fprintln(out, "REQUEST")
		fmt.Fprintln(out, sep)
		if e.RequestBody != "" {
			fmt.Fprintln(out, e.RequestBody)
		} else {
			fmt.Fprintln(out, "(not captured)")
		}

		fmt.Fprintln(out, sep)
		fmt.Fprintln(out, "RESPONSE")
		fmt.Fprintln(out, sep)
		if e.ResponseBody != "" {
			fmt.Fprintln(out, e.ResponseBody)
		} else {
			fmt.Fprintln(out, "(not captured)")
		}

		return nil
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show LLM usage and estimated cost by purpose and practice session",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, _ := cmd.Flags().GetInt("sessions")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		rows, err := s.EventRepo().LLMUsage(cmd.Context())
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		renderUsage(cmd.OutOrStdout(), llm.Summarize(rows), sessions)
		return nil
	},
}

// renderUsage prints per-purpose totals, then the most recent practice
// sessions with their cost.
func renderUsage(out io.Writer, report llm.UsageReport, sessions int) {
	if report.Total.Calls == 0 {
		fmt.Fprintln(out, "No LLM usage recorded yet.")
		return
	}
	rule := strings.Repeat("\u2500", 84)

	fmt.Fprintln(out, theme.Title.Render("Usage by purpose"))
	fmt.Fprintf(out, "%-10s  %6s  %8s  %8s  %10s  %10s  %8s  %10s\n",
		"Purpose", "Calls", "Failed", "Sessions", "Input", "Output", "Avg Ms", "Cost")
	fmt.Fprintln(out, rule)
	for _, p := range report.Purposes {
		fmt.Fprintf(out, "%-10s  %6d  %8d  %8d  %10d  %10d  %8d  %10s\n",
			p.Purpose, p.Calls, p.Failures, p.Sessions, p.InputTokens, p.OutputTokens,
			p.AvgLatencyMs(), formatTotalsCost(p.UsageTotals))
	}
	fmt.Fprintln(out, rule)
	t := report.Total
	fmt.Fprintf(out, "%-10s  %6d  %8d  %8s  %10d  %10d  %8d  %10s\n",
		"TOTAL", t.Calls, t.Failures, "", t.InputTokens, t.OutputTokens, t.AvgLatencyMs(), formatTotalsCost(t))

	if len(report.Sessions) > 0 && sessions > 0 {
		shown := report.Sessions[max(0, len(report.Sessions)-sessions):]
		var sum float64
		for _, s := range report.Sessions {
			sum += s.CostUSD
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.Title.Render("Cost per practice session"))
		fmt.Fprintf(out, "%-10s  %6s  %8s  %10s  %10s  %10s  %s\n",
			"Session", "Turns", "Failed", "Input", "Output", "Cost", "Models")
		fmt.Fprintln(out, rule)
		for i := len(shown) - 1; i >= 0; i-- {
			s := shown[i]
			fmt.Fprintf(out, "%-10s  %6d  %8d  %10d  %10d  %10s  %s\n",
				shortID(s.SessionID), s.Calls, s.Failures, s.InputTokens, s.OutputTokens,
				formatTotalsCost(s.UsageTotals), strings.Join(s.Models, ", "))
		}
		fmt.Fprintln(out, rule)
		fmt.Fprintln(out, theme.Hint.Render(fmt.Sprintf("%d sessions, average %s each",
			len(report.Sessions), formatCost(sum/float64(len(report.Sessions))))))
	}

	if t.Unpriced {
		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.Hint.Render("* some models have no known price; costs marked * are lower bounds"))
	}
}

func formatTotalsCost(t llm.UsageTotals) string {
	c := formatCost(t.CostUSD)
	if t.Unpriced {
		c += "*"
	}
	return c
}

func shortID(id string) string {
	if id == "" {
		return "-"
	}
	return truncate(id, 8)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (tutor or grading)")
	llmListCmd.Flags().StringP("session", "s", "", "Filter by practice session id")
	llmStatsCmd.Flags().Int("sessions", 10, "Number of recent sessions to list")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}

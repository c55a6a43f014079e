package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/garage/internal/wire"
)

var inspectionHistoryCmd = &cobra.Command{
	Use:   "history [inspection-id]",
	Short: "Show the full state history of an inspection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadActor()
		if err != nil {
			return err
		}

		entries, err := wire.WorkflowService().GetWorkflowHistory(ctx, cfg.ShopID, args[0])
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No transitions recorded.")
			return nil
		}

		for _, e := range entries {
			actor := e.ChangedBy
			if e.ChangedByName != "" {
				actor = fmt.Sprintf("%s (%s)", e.ChangedByName, e.ChangedBy)
			}
			forcedTag := ""
			if e.Forced {
				forcedTag = color.New(color.FgHiMagenta).Sprint(" [FORCED]")
			}
			fmt.Printf("%s  %s → %s%s\n", e.ChangedAt.Format("2006-01-02 15:04:05"),
				stateBadge(e.FromState), stateBadge(e.ToState), forcedTag)
			fmt.Printf("    by %s as %s\n", actor, e.ChangedByRole)
			if e.ChangeReason != "" {
				fmt.Printf("    reason: %s\n", e.ChangeReason)
			}
		}
		return nil
	},
}

var inspectionStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show workflow statistics for the shop",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadActor()
		if err != nil {
			return err
		}
		window, _ := cmd.Flags().GetInt("window")

		stats, err := wire.WorkflowService().GetWorkflowStatistics(ctx, cfg.ShopID, window)
		if err != nil {
			return err
		}

		fmt.Printf("Workflow activity for %s (last %d days)\n\n", cfg.ShopID, stats.WindowDays)
		fmt.Printf("  Transitions: %d (forced: %d)\n", stats.TotalTransitions, stats.ForcedTransitions)
		fmt.Printf("  Starts:      %d\n", stats.Starts)
		fmt.Printf("  Submissions: %d\n", stats.Submissions)
		fmt.Printf("  Approvals:   %d\n", stats.Approvals)
		fmt.Printf("  Rejections:  %d\n", stats.Rejections)
		fmt.Printf("  Completions: %d\n", stats.Completions)
		if stats.AvgCompletionDuration > 0 {
			fmt.Printf("  Avg inspection duration: %s\n", stats.AvgCompletionDuration.Round(time.Second))
		}
		if len(stats.ByState) > 0 {
			fmt.Println("\n  Current snapshot:")
			for _, state := range []string{"draft", "in_progress", "pending_review", "approved", "rejected", "sent_to_customer", "completed"} {
				if n, ok := stats.ByState[state]; ok {
					fmt.Printf("    %-18s %d\n", state, n)
				}
			}
		}
		return nil
	},
}

func init() {
	inspectionStatsCmd.Flags().Int("window", 30, "Trailing window in days")
}

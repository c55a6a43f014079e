package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/example/garage/internal/ports/primary"
	"github.com/example/garage/internal/wire"
)

// autosendCmd is the external timer the engine itself deliberately lacks:
// it periodically sweeps approved inspections and re-enters the executor
// to move them to sent_to_customer. Conflicts and validation failures are
// reported and skipped; the next sweep retries them.
var autosendCmd = &cobra.Command{
	Use:   "autosend",
	Short: "Periodically send approved inspections to their customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadActor()
		if err != nil {
			return err
		}
		schedule, _ := cmd.Flags().GetString("schedule")
		once, _ := cmd.Flags().GetBool("once")

		if once {
			return sweepApproved(context.Background(), cfg.ShopID, cfg.ActorID, cfg.Role)
		}

		c := cron.New()
		_, err = c.AddFunc(schedule, func() {
			if err := sweepApproved(context.Background(), cfg.ShopID, cfg.ActorID, cfg.Role); err != nil {
				fmt.Fprintf(os.Stderr, "autosend sweep failed: %v\n", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}

		fmt.Printf("autosend running on schedule %q (ctrl-c to stop)\n", schedule)
		c.Start()
		defer c.Stop()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}

func sweepApproved(ctx context.Context, shopID, actorID, role string) error {
	svc := wire.WorkflowService()

	approved, err := svc.ListInspectionsByState(ctx, shopID, []string{"approved"}, 0)
	if err != nil {
		return err
	}

	for _, insp := range approved {
		res, err := svc.ExecuteTransition(ctx, primary.TransitionRequest{
			InspectionID:    insp.ID,
			ShopID:          shopID,
			FromState:       insp.State,
			ToState:         "sent_to_customer",
			ExpectedVersion: insp.Version,
			ActorID:         actorID,
			ActorRole:       role,
		})
		if err != nil {
			return err
		}
		printResult(res, fmt.Sprintf("autosend %s", insp.ID))
	}
	if len(approved) == 0 {
		fmt.Println("autosend: nothing approved to send")
	}
	return nil
}

// AutosendCmd returns the autosend command.
func AutosendCmd() *cobra.Command {
	autosendCmd.Flags().String("schedule", "@every 5m", "Cron schedule for sweeps")
	autosendCmd.Flags().Bool("once", false, "Run a single sweep and exit")
	return autosendCmd
}

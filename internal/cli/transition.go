package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/garage/internal/ports/primary"
	"github.com/example/garage/internal/wire"
)

var inspectionTransitionCmd = &cobra.Command{
	Use:   "transition [inspection-id]",
	Short: "Move an inspection to a new workflow state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadActor()
		if err != nil {
			return err
		}
		toState, _ := cmd.Flags().GetString("to")
		fromState, _ := cmd.Flags().GetString("from")
		reason, _ := cmd.Flags().GetString("reason")
		version, _ := cmd.Flags().GetInt("version")
		if toState == "" {
			return fmt.Errorf("--to is required")
		}

		svc := wire.WorkflowService()

		// Without an explicit belief, take the freshest snapshot. A race
		// between here and execution still surfaces as a conflict.
		if fromState == "" {
			cur, err := svc.GetCurrentState(ctx, cfg.ShopID, args[0])
			if err != nil {
				return err
			}
			fromState = cur.State
			if version < 0 {
				version = cur.Version
			}
		}

		res, err := svc.ExecuteTransition(ctx, primary.TransitionRequest{
			InspectionID:    args[0],
			ShopID:          cfg.ShopID,
			FromState:       fromState,
			ToState:         toState,
			ExpectedVersion: version,
			ActorID:         cfg.ActorID,
			ActorRole:       cfg.Role,
			Reason:          reason,
		})
		if err != nil {
			return err
		}

		printResult(res, fmt.Sprintf("%s: %s → %s", args[0], fromState, toState))
		return nil
	},
}

var inspectionCheckCmd = &cobra.Command{
	Use:   "check [inspection-id]",
	Short: "Check whether a transition would be allowed, without applying it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadActor()
		if err != nil {
			return err
		}
		toState, _ := cmd.Flags().GetString("to")
		reason, _ := cmd.Flags().GetString("reason")
		if toState == "" {
			return fmt.Errorf("--to is required")
		}

		res, err := wire.WorkflowService().CanTransition(ctx, primary.TransitionRequest{
			InspectionID:    args[0],
			ShopID:          cfg.ShopID,
			ToState:         toState,
			ExpectedVersion: -1,
			ActorID:         cfg.ActorID,
			ActorRole:       cfg.Role,
			Reason:          reason,
		})
		if err != nil {
			return err
		}

		printResult(res, fmt.Sprintf("%s → %s would be allowed", args[0], toState))
		return nil
	},
}

var inspectionForceCmd = &cobra.Command{
	Use:   "force [inspection-id]",
	Short: "Force an inspection into a state, bypassing normal validation",
	Long: `Force a transition outside the normal state graph. Requires the admin
role and a justification; the audit trail tags the entry as forced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadActor()
		if err != nil {
			return err
		}
		toState, _ := cmd.Flags().GetString("to")
		reason, _ := cmd.Flags().GetString("reason")
		if toState == "" {
			return fmt.Errorf("--to is required")
		}

		res, err := wire.WorkflowService().ForceTransition(ctx, primary.ForceTransitionRequest{
			InspectionID: args[0],
			ShopID:       cfg.ShopID,
			ToState:      toState,
			ActorID:      cfg.ActorID,
			Reason:       reason,
		})
		if err != nil {
			return err
		}

		printResult(res, fmt.Sprintf("forced %s → %s", args[0], toState))
		return nil
	},
}

func init() {
	inspectionTransitionCmd.Flags().String("to", "", "Target workflow state")
	inspectionTransitionCmd.Flags().String("from", "", "Believed current state (default: fetched)")
	inspectionTransitionCmd.Flags().String("reason", "", "Reason (required when rejecting)")
	inspectionTransitionCmd.Flags().Int("version", -1, "Expected record version (default: unchecked or fetched)")

	inspectionCheckCmd.Flags().String("to", "", "Target workflow state")
	inspectionCheckCmd.Flags().String("reason", "", "Reason to validate against")

	inspectionForceCmd.Flags().String("to", "", "Target workflow state")
	inspectionForceCmd.Flags().String("reason", "", "Justification (required)")
}

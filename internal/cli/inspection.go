package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/garage/internal/ports/primary"
	"github.com/example/garage/internal/wire"
)

var inspectionCmd = &cobra.Command{
	Use:   "inspection",
	Short: "Manage vehicle inspections and their workflow",
	Long:  "Create inspections, move them through the review workflow, and read their audit trail",
}

var inspectionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new draft inspection",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadActor()
		if err != nil {
			return err
		}
		customerID, _ := cmd.Flags().GetString("customer")
		if customerID == "" {
			return fmt.Errorf("--customer is required")
		}

		insp, err := wire.WorkflowService().CreateInspection(ctx, primary.CreateInspectionRequest{
			ShopID:       cfg.ShopID,
			TechnicianID: cfg.ActorID,
			CustomerID:   customerID,
		})
		if err != nil {
			return fmt.Errorf("failed to create inspection: %w", err)
		}

		fmt.Printf("✓ Created inspection %s for customer %s (state: %s)\n", insp.ID, insp.CustomerID, insp.State)
		return nil
	},
}

var inspectionShowCmd = &cobra.Command{
	Use:   "show [inspection-id]",
	Short: "Show an inspection's current state and version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadActor()
		if err != nil {
			return err
		}

		cur, err := wire.WorkflowService().GetCurrentState(ctx, cfg.ShopID, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Inspection %s\n", cur.InspectionID)
		fmt.Printf("  State:   %s\n", stateBadge(cur.State))
		fmt.Printf("  Version: %d\n", cur.Version)
		fmt.Printf("  Updated: %s\n", cur.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var inspectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inspections by workflow state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadActor()
		if err != nil {
			return err
		}
		states, _ := cmd.Flags().GetStringSlice("state")
		limit, _ := cmd.Flags().GetInt("limit")
		if len(states) == 0 {
			states = []string{"draft", "in_progress", "pending_review", "approved", "rejected", "sent_to_customer"}
		}

		inspections, err := wire.WorkflowService().ListInspectionsByState(ctx, cfg.ShopID, states, limit)
		if err != nil {
			return fmt.Errorf("failed to list inspections: %w", err)
		}

		if len(inspections) == 0 {
			fmt.Println("No inspections found.")
			return nil
		}

		fmt.Printf("Found %d inspection(s):\n\n", len(inspections))
		for _, insp := range inspections {
			fmt.Printf("  %s  %s  v%d  customer=%s  tech=%s\n",
				insp.ID, stateBadge(insp.State), insp.Version, insp.CustomerID, insp.TechnicianID)
		}
		return nil
	},
}

var inspectionItemsCmd = &cobra.Command{
	Use:   "items [inspection-id]",
	Short: "List an inspection's items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadActor()
		if err != nil {
			return err
		}

		items, err := wire.WorkflowService().ListItems(ctx, cfg.ShopID, args[0])
		if err != nil {
			return err
		}

		if len(items) == 0 {
			fmt.Println("No items recorded.")
			return nil
		}
		for _, it := range items {
			condition := it.ConditionStatus
			if condition == "" {
				condition = "(no status)"
			}
			marker := " "
			if it.IsCritical {
				marker = "!"
			}
			fmt.Printf("  %s %-30s %s\n", marker, it.Name, condition)
		}
		return nil
	},
}

var inspectionAddItemCmd = &cobra.Command{
	Use:   "add-item [inspection-id] [name]",
	Short: "Attach an item to an inspection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadActor()
		if err != nil {
			return err
		}
		condition, _ := cmd.Flags().GetString("condition")
		critical, _ := cmd.Flags().GetBool("critical")

		err = wire.WorkflowService().AddItem(ctx, primary.AddItemRequest{
			ShopID:          cfg.ShopID,
			InspectionID:    args[0],
			Name:            args[1],
			ConditionStatus: condition,
			IsCritical:      critical,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Added item %q to %s\n", args[1], args[0])
		return nil
	},
}

// InspectionCmd returns the inspection command group.
func InspectionCmd() *cobra.Command {
	inspectionCreateCmd.Flags().String("customer", "", "Customer ID the inspection is for")

	inspectionListCmd.Flags().StringSlice("state", nil, "Workflow states to include (default: all non-completed)")
	inspectionListCmd.Flags().Int("limit", 50, "Maximum number of inspections")

	inspectionAddItemCmd.Flags().String("condition", "", "Condition status (good, fair, poor, needs_attention)")
	inspectionAddItemCmd.Flags().Bool("critical", false, "Flag the item as a safety-critical finding")

	inspectionCmd.AddCommand(inspectionCreateCmd)
	inspectionCmd.AddCommand(inspectionShowCmd)
	inspectionCmd.AddCommand(inspectionListCmd)
	inspectionCmd.AddCommand(inspectionItemsCmd)
	inspectionCmd.AddCommand(inspectionAddItemCmd)
	inspectionCmd.AddCommand(inspectionTransitionCmd)
	inspectionCmd.AddCommand(inspectionCheckCmd)
	inspectionCmd.AddCommand(inspectionForceCmd)
	inspectionCmd.AddCommand(inspectionHistoryCmd)
	inspectionCmd.AddCommand(inspectionStatsCmd)
	return inspectionCmd
}

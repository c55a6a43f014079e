package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/garage/internal/config"
	"github.com/example/garage/internal/core/workflow"
	"github.com/example/garage/internal/db"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize garage context in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		shopID, _ := cmd.Flags().GetString("shop")
		actorID, _ := cmd.Flags().GetString("actor")
		role, _ := cmd.Flags().GetString("role")
		demo, _ := cmd.Flags().GetBool("demo")

		if shopID == "" || actorID == "" || role == "" {
			return fmt.Errorf("--shop, --actor and --role are all required")
		}
		if _, err := workflow.ParseRole(role); err != nil {
			return err
		}

		if err := config.SaveConfig(".", &config.Config{
			Version: "1",
			ShopID:  shopID,
			ActorID: actorID,
			Role:    role,
		}); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote .garage/config.json (shop=%s actor=%s role=%s)\n", shopID, actorID, role)

		// Opening the database creates the schema on first touch.
		database, err := db.GetDB()
		if err != nil {
			return err
		}

		if demo {
			if err := db.SeedFixtures(database); err != nil {
				return fmt.Errorf("failed to seed demo data: %w", err)
			}
			fmt.Println("✓ Seeded demo shop SHOP-001 with staff, a customer, and inspection INSP-001")
		}
		return nil
	},
}

// InitCmd returns the init command.
func InitCmd() *cobra.Command {
	initCmd.Flags().String("shop", "", "Shop ID this workstation acts for")
	initCmd.Flags().String("actor", "", "Acting user ID")
	initCmd.Flags().String("role", "", "Acting role: technician, manager, or admin")
	initCmd.Flags().Bool("demo", false, "Seed demo fixtures")
	return initCmd
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/garage/internal/cli"
	"github.com/example/garage/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "garage",
		Short:   "garage - vehicle inspection workflow for repair shops",
		Version: version.String(),
		Long: `garage manages the lifecycle of vehicle inspection records as they move
between technicians and reviewing managers: drafting, review, approval,
customer delivery, and the audit trail behind every step.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.InspectionCmd())
	rootCmd.AddCommand(cli.AutosendCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

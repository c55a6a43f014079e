package cli

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/example/garage/internal/config"
	"github.com/example/garage/internal/ports/primary"
)

// loadActor reads the shop/actor configuration from the current
// directory. Every command fills request parameters from it explicitly;
// nothing downstream reads ambient context.
func loadActor() (*config.Config, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("no garage context found\nHint: run 'garage init' first: %w", err)
	}
	if cfg.ShopID == "" || cfg.ActorID == "" || cfg.Role == "" {
		return nil, fmt.Errorf("incomplete config: shop_id, actor_id and role are all required")
	}
	return cfg, nil
}

// printResult renders a transition result: green on success, yellow
// warnings, red errors with their kind.
func printResult(res *primary.TransitionResult, verb string) {
	if res.Success {
		fmt.Printf("%s %s (version %d)\n", color.New(color.FgGreen).Sprint("✓"), verb, res.Version)
	} else {
		fmt.Printf("%s %s\n", color.New(color.FgRed).Sprint("✗"), verb)
		for _, e := range res.Errors {
			fmt.Printf("  %s %s\n", color.New(color.FgRed).Sprintf("[%s]", e.Kind), e.Message)
		}
	}
	for _, w := range res.Warnings {
		fmt.Printf("  %s %s\n", color.New(color.FgYellow).Sprint("warning:"), w)
	}
}

func stateBadge(state string) string {
	switch state {
	case "approved", "completed":
		return color.New(color.FgGreen).Sprint(state)
	case "rejected":
		return color.New(color.FgRed).Sprint(state)
	case "pending_review":
		return color.New(color.FgYellow).Sprint(state)
	default:
		return state
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statusFlags struct {
	jsonOutput bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's usage and remaining quota",
	Long: `Show today's request count, spend, unique identities, and the remaining
headroom against the configured ceilings.

Examples:
  codechat status
  codechat status --json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusFlags.jsonOutput, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}

	comps, err := newComponents(cfg, false)
	if err != nil {
		return err
	}
	defer comps.close()

	status, err := comps.tracker.Status(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}

	if statusFlags.jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	fmt.Printf("Requests today:    %d / %d (%d remaining)\n",
		status.DailyRequests, status.Limits.MaxDailyRequests, status.RequestsRemaining)
	fmt.Printf("Spend today:       $%.4f / $%.2f ($%.4f remaining)\n",
		status.DailyCost, status.Limits.MaxDailyCost, status.CostRemaining)
	fmt.Printf("Unique identities: %d\n", status.UniqueIdentities)
	fmt.Printf("Per-identity:      %d/hour, %d/day\n",
		status.Limits.MaxRequestsPerIdentityHour, status.Limits.MaxRequestsPerIdentityDay)
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var resetFlags struct {
	yes bool
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset today's counters",
	Long: `Zero today's request count and spend, and purge request records past the
retention horizon. Historical daily aggregates are untouched.

Examples:
  codechat reset --yes`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolVarP(&resetFlags.yes, "yes", "y", false, "skip confirmation")
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetFlags.yes {
		fmt.Print("Reset today's request and cost counters? [y/N] ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" && answer != "yes" {
			fmt.Println("Aborted")
			return nil
		}
	}

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

	if err := comps.tracker.ResetDaily(context.Background()); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	fmt.Println("Daily counters reset")
	return nil
}

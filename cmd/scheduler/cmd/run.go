package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <job>",
	Short: "Run one job immediately",
	Long:  "Run one job immediately. Exclusive jobs take the same lease as scheduled runs.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApplication(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.scheduler.RunOnce(ctx, args[0]); err != nil {
			return fmt.Errorf("job %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "job %s finished\n", args[0])
		return nil
	},
}

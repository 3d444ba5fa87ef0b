// Package cmd contains the CLI commands for the scheduler.
package cmd

import (
	"asset_lifecycle_scheduler/internal/infra/config"
	"asset_lifecycle_scheduler/internal/infra/logger"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "asset-scheduler",
	Short: "Background jobs for the asset lifecycle application",
	Long: `asset-scheduler runs the periodic work behind the asset lifecycle application:

  - recurring maintenance generation (hourly)
  - scheduled reports (every minute)
  - warranty expiry (daily at 01:00)
  - alert generation (daily) and alert dispatch (every 15 minutes)

Examples:
  # Run the scheduler with the ops server
  asset-scheduler serve

  # Run one job now
  asset-scheduler run alerts:generate`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, runCmd, migrateCmd, jobsCmd)
}

// loadConfig reads configuration and initialises the global logger.
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg)
	return cfg, nil
}

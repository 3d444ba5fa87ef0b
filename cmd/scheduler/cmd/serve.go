package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"asset_lifecycle_scheduler/internal/infra/logger"
	"asset_lifecycle_scheduler/internal/infra/metrics"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the job scheduler and the ops HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.Component("main")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApplication(ctx, cfg)
		if err != nil {
			log.WithError(err).Error("Could not start application")
			return err
		}
		defer a.Close()

		if err := a.scheduler.Start(); err != nil {
			return err
		}
		ops := metrics.NewServer(cfg.HTTPAddr, a.db, logger.Component("ops"))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(ops.Start)
		g.Go(func() error {
			<-gctx.Done()
			log.Info("Shutting down application...")
			a.scheduler.Stop()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return ops.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			log.WithError(err).Error("Application stopped with error")
			return err
		}
		log.Info("Application shut down gracefully.")
		return nil
	},
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"barangayhealth/internal/caching"
	"barangayhealth/internal/handlers"
	"barangayhealth/internal/jobs/background"
	"barangayhealth/internal/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stock-sweep",
		Short:         "Barangay health inventory alerts and expiry sweep",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newSweepCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduled sweep and the admin API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()
			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	scheduler, err := background.NewJobScheduler(a.runner, background.SchedulerOptions{
		Schedule: a.cfg.Sweep.Schedule,
		Location: a.location,
		Locker:   caching.NewJobLocker(a.redis, a.cfg.Sweep.LockTTL),
		Logger:   a.logger.Named("scheduler"),
	})
	if err != nil {
		return err
	}
	if a.cfg.Sweep.Enabled {
		scheduler.Start()
	} else {
		a.logger.Warn("stock sweep schedule disabled, manual runs only")
	}

	health := handlers.NewHealthHandlers(version, map[string]handlers.Checker{
		"database": handlers.PingerCheck(a.pool),
		"redis":    handlers.RedisCheck(a.redis),
	})
	server := handlers.NewAdminServer(health, handlers.NewJobHandlers(scheduler), a.metrics.Handler(), a.logger.Named("admin"))

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", a.cfg.AdminPort)
		a.logger.Info("admin server starting", zap.String("addr", addr), zap.String("version", version))
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			a.logger.Error("admin server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("admin server shutdown", zap.Error(err))
	}
	// Shutdown waits for an in-flight sweep to finish.
	if err := scheduler.Stop(); err != nil {
		a.logger.Warn("scheduler shutdown", zap.Error(err))
	}
	return nil
}

func newSweepCmd() *cobra.Command {
	var categories []string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one stock sweep now and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			selected, err := parseCategories(categories)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			summary, err := a.runner.RunCategories(ctx, selected...)
			if err != nil {
				return err
			}
			if errs := summary.Totals().Errors; len(errs) > 0 {
				return fmt.Errorf("sweep %s finished with %d error(s)", summary.RunID, len(errs))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "categories to sweep (default all): medicine, firstaid, commodity, vaccine, immunization")
	return cmd
}

func parseCategories(raw []string) ([]models.Category, error) {
	if len(raw) == 0 {
		return models.AllCategories, nil
	}
	out := make([]models.Category, 0, len(raw))
	for _, r := range raw {
		c, ok := models.ParseCategory(r)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", r)
		}
		out = append(out, c)
	}
	return out, nil
}

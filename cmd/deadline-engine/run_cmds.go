package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/username/legal-deadline-engine/internal/api"
	"github.com/username/legal-deadline-engine/internal/config"
	"github.com/username/legal-deadline-engine/internal/daemon"
	"github.com/username/legal-deadline-engine/internal/deadline"
	"github.com/username/legal-deadline-engine/internal/manager"
	"github.com/username/legal-deadline-engine/pkg/dateutil"
)

func sweepCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Mark overdue deadlines and report the urgent ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()

			summary, err := a.mgr.Sweep(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(summary)
			}
			printSweep(summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report without marking anything overdue")
	return cmd
}

func printSweep(s *manager.SweepSummary) {
	outPrintf("\n📋 Sweep Summary (%s):\n", dateutil.Format(s.Today))
	outPrintln(rule)
	outPrintf("  Checked:          %d\n", s.Checked)
	outPrintf("  Marked overdue:   %d\n", len(s.MarkedOverdue))
	if s.Errors > 0 {
		outPrintf("  Errors:           %d\n", s.Errors)
	}
	for _, level := range deadline.Levels() {
		if n := s.Levels[level]; n > 0 {
			outPrintf("  %-16s  %d\n", string(level)+":", n)
		}
	}

	if len(s.Urgent) > 0 {
		outPrintln("\n  Needs attention:")
		printViewTable(s.Urgent)
	}
	if s.DryRun {
		outPrintln("\n[DRY RUN] Nothing was written")
	}
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Sweep deadlines every day at daemon.daily_time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a, err := initializeApp(cmd.Context(), cfg, true, false)
			if err != nil {
				return err
			}
			defer a.close()

			return newDaemon(a).Start(cmd.Context())
		},
	}
}

// newDaemon schedules the daily sweep in the engine's reference zone
func newDaemon(a *app) *daemon.Daemon {
	hour, minute := a.cfg.Daemon.GetDailyTime()
	return daemon.NewScheduledDaemon(a.mgr, hour, minute, a.mgr.Engine().Location(), logger)
}

func serveCmd() *cobra.Command {
	var addr string
	var withDaemon bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API (and optionally the daily sweep)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := initializeApp(ctx, cfg, true, true)
			if err != nil {
				return err
			}
			defer a.close()

			srv := api.NewServer(a.mgr, a.metrics, logger, cfg.Server.CORSOrigins)

			var d *daemon.Daemon
			if withDaemon {
				d = newDaemon(a)
				srv.WithScheduler(d)
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.ListenAndServe(gctx, addr)
			})
			if d != nil {
				g.Go(func() error {
					return d.Start(gctx)
				})
			}

			err = g.Wait()
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Server stopped", zap.Error(err))
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr)")
	cmd.Flags().BoolVar(&withDaemon, "with-daemon", false, "Also run the daily sweep scheduler")
	return cmd
}

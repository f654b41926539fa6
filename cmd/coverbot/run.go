package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"coverbot/insure"
	"coverbot/logger"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the reconciliation scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.engine.EnsureFeed(); err != nil {
				a.log.WithComponent("main").Warn("TORN_API_KEY not set; passes will be skipped until one is provided")
			}

			sched := insure.NewScheduler(a.engine, a.log)
			if a.cfg.Scheduler.Enabled {
				sched.Enable(a.cfg.SchedulerInterval())
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sched.Start(ctx)
			a.log.WithComponent("main").WithFields(logger.Fields{
				"enabled":  a.cfg.Scheduler.Enabled,
				"interval": a.cfg.SchedulerInterval().String(),
			}).Info("scheduler started")

			<-ctx.Done()
			sched.Stop()
			a.log.WithComponent("main").Info("shutdown complete")
			return nil
		},
	}
}

func onceCmd() *cobra.Command {
	var checkOnly bool
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single reconciliation pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.engine.EnsureFeed(); err != nil {
				return err
			}

			var stats insure.PassStats
			if checkOnly {
				stats = a.engine.CheckOrders(cmd.Context())
			} else {
				stats = a.engine.Reconcile(cmd.Context())
			}
			fmt.Printf("run %s: discovered=%d activated=%d still_pending=%d\n",
				stats.RunID, stats.Discovered, stats.Activated, stats.StillPending)
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check-only", false, "Match pending orders only, skip discovery")
	return cmd
}

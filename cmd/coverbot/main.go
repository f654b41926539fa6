package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"coverbot/insure"
	"coverbot/logger"
)

var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:     "coverbot",
		Short:   "Overdose insurance order reconciliation for faction members",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "coverbot.yaml", "Path to config file")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(onceCmd())
	rootCmd.AddCommand(ordersCmd())
	rootCmd.AddCommand(claimsCmd())
	rootCmd.AddCommand(pricingCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	cfg    *insure.FileConfig
	engine *insure.Engine
	ledger *insure.Ledger
	log    *logger.Log
}

func newApp() (*app, error) {
	_ = godotenv.Load()

	cfg, err := insure.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.GetLogger()
	if cfg.Logging.Level != "" || cfg.Logging.Output != "" {
		if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
			return nil, fmt.Errorf("configure logging: %w", err)
		}
	}

	store := insure.NewStore()
	var ledger *insure.Ledger
	if cfg.DB != "" {
		ledger, err = insure.OpenLedger(cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		if err := ledger.RestoreInto(store); err != nil {
			return nil, fmt.Errorf("restore state: %w", err)
		}
	}

	var feed insure.FeedSource
	if key := os.Getenv("TORN_API_KEY"); key != "" {
		feed = insure.NewTornFeed(cfg.Feed.BaseURL, key,
			time.Duration(cfg.Feed.TimeoutSeconds)*time.Second, cfg.Feed.RatePerMinute)
	}

	engine := insure.NewEngine(
		store,
		cfg.BuildPricing(),
		cfg.BuildRoster(),
		feed,
		&insure.LogNotifier{Log: log},
		ledger,
		log,
	)
	return &app{cfg: cfg, engine: engine, ledger: ledger, log: log}, nil
}

func (a *app) close() {
	if a.ledger != nil {
		_ = a.ledger.Close()
	}
}

func (a *app) member(memberID int64) (insure.Member, error) {
	for _, m := range a.cfg.BuildRoster() {
		if m.ID == memberID {
			return m, nil
		}
	}
	return insure.Member{}, fmt.Errorf("member %d not on roster", memberID)
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"StockResearch/internal/cache"
	"StockResearch/internal/collector"
	"StockResearch/internal/config"
	"StockResearch/internal/logger"
	"StockResearch/internal/metrics"
)

// app is the wiring shared by every subcommand.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	metrics   *metrics.Metrics
	store     cache.Store
	collector *collector.Collector
	period    collector.Period
}

// newApp loads configuration and builds the analysis pipeline. quiet
// discards logs so they don't interleave with terminal output.
func newApp(cmd *cli.Command, quiet bool) (*app, error) {
	cfg, err := config.Load(cmd.String("config"), cmd.StringSlice("env-file")...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if p := cmd.String("provider"); p != "" {
		cfg.Provider.Name = p
	}
	if lvl := cmd.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	l := logger.NewNop()
	if !quiet {
		if l, err = logger.NewLogger(cfg.Log.Level); err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	period, err := collector.ParsePeriod(cfg.Analysis.DefaultPeriod)
	if err != nil {
		return nil, err
	}
	if p := cmd.String("period"); p != "" {
		if period, err = collector.ParsePeriod(p); err != nil {
			return nil, err
		}
	}

	m := metrics.NewMetrics()
	store, err := collector.NewStore(cfg)
	if err != nil {
		l.Warn("cache backend unavailable, falling back to memory",
			zap.String("backend", cfg.Cache.Backend), zap.Error(err))
		store = cache.NewMemoryStore()
	}
	fetcher, err := collector.NewFetcher(cfg, store, l, m)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init fetcher: %w", err)
	}

	col := collector.NewCollector(fetcher, l, m)
	col.Concurrency = cfg.Analysis.Concurrency
	l.Info("analysis pipeline ready",
		zap.String("provider", fetcher.Name()),
		zap.String("cache", cfg.Cache.Backend),
		zap.String("period", string(period)))

	return &app{cfg: cfg, log: l, metrics: m, store: store, collector: col, period: period}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("close cache", zap.Error(err))
	}
	a.log.Sync()
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "stockresearch",
		Usage: "Technical indicator research for stocks and crypto pairs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   "configs/config.yaml",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Env files loaded before environment overrides (default .env)",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "Override the data provider (yahoo, polygon, binance, mock)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override the log level",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			analyzeCommand(),
			tuiCommand(),
		},
	}
}

func main() {
	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

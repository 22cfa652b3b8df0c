package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"StockResearch/internal/notifier"
	"StockResearch/internal/recorder"
	"StockResearch/internal/scheduler"
	"StockResearch/internal/server"
	"StockResearch/internal/watchlist"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API, the watchlist scheduler and the Telegram bot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.addr",
			},
			&cli.StringFlag{
				Name:    "period",
				Aliases: []string{"p"},
				Usage:   "Lookback period for refreshes and API defaults",
			},
			&cli.BoolFlag{
				Name:    "run-on-start",
				Usage:   "Refresh the watchlist immediately",
				Sources: cli.EnvVars("RUN_ON_START"),
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if a.cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(a.cfg.Database.SQLitePath, a.log)
		if err != nil {
			a.log.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			rec = sr
		}
	}
	defer rec.Close()

	wl, err := watchlist.NewManager(a.cfg.Watchlist.StateFile, a.cfg.Watchlist.Tickers)
	if err != nil {
		return fmt.Errorf("init watchlist: %w", err)
	}

	var (
		n  notifier.Notifier = notifier.LogNotifier{Logger: a.log}
		tg *notifier.TelegramNotifier
	)
	if a.cfg.TelegramEnabled() {
		tg = notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy, a.log, a.metrics)
		n = tg
	} else {
		a.log.Info("telegram not configured, notifications go to the log")
	}

	hub := server.NewHub(a.log, a.metrics)

	sched := scheduler.NewScheduler(ctx, a.collector, wl, n, rec, a.log, a.metrics)
	sched.Period = a.period
	sched.Broadcaster = hub
	if err := sched.Register(a.cfg.Schedule.RefreshCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tg != nil {
		go tg.StartPolling(ctx, sched.HandleCommand, notifier.PollOptions{Timeout: 30})
		a.log.Info("telegram polling started")
	}
	if cmd.Bool("run-on-start") {
		a.log.Info("run-on-start enabled, refreshing watchlist now")
		go sched.Refresh(ctx)
	}

	srv := server.New(a.collector, wl, rec, hub, a.log, a.metrics)
	srv.Period = a.period

	addr := a.cfg.Server.Addr
	if v := cmd.String("addr"); v != "" {
		addr = v
	}
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	a.log.Info("shutdown complete")
	return nil
}

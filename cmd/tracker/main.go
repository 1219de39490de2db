package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/polytracker/config"
	"github.com/alejandrodnm/polytracker/internal/adapters/httpapi"
	"github.com/alejandrodnm/polytracker/internal/adapters/notify"
	"github.com/alejandrodnm/polytracker/internal/adapters/polymarket"
	"github.com/alejandrodnm/polytracker/internal/adapters/telegram"
	"github.com/alejandrodnm/polytracker/internal/application/commands"
	"github.com/alejandrodnm/polytracker/internal/application/tracker"
	"github.com/alejandrodnm/polytracker/internal/application/watchlist"
	"github.com/alejandrodnm/polytracker/internal/domain"
	"github.com/alejandrodnm/polytracker/internal/ports"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional, env and defaults otherwise)")
	once := flag.Bool("once", false, "poll every wallet once, print alerts and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	slog.Info("polytracker starting",
		"config", *configPath,
		"interval", cfg.Interval(),
		"storage", cfg.Storage.Driver,
		"telegram", cfg.TelegramEnabled(),
		"http", cfg.HTTP.Addr,
		"once", *once,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	persist, err := openStorage(cfg.Storage)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "driver", cfg.Storage.Driver, "path", cfg.Storage.Path)
		os.Exit(1)
	}
	defer persist.Close()

	store, err := watchlist.Open(ctx, persist)
	if err != nil {
		slog.Error("failed to load watchlist", "err", err)
		os.Exit(1)
	}

	client := polymarket.NewClient(polymarket.Config{
		DataBase:          cfg.API.DataBase,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		PageLimit:         cfg.API.PageLimit,
		MaxPages:          cfg.API.MaxPages,
	})

	console := notify.NewConsole(!*once)
	var bot *telegram.Bot
	var notifier ports.Notifier = console
	if cfg.TelegramEnabled() && !*once {
		bot = telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.BaseURL)
		notifier = notify.NewMulti(telegram.NewNotifier(bot, cfg.Telegram.ChatID), notify.NewConsole(false))
	} else if !*once {
		slog.Warn("telegram credentials missing, alerts go to the console")
	}

	schedCfg := tracker.DefaultConfig()
	schedCfg.Interval = cfg.Interval()
	schedCfg.Workers = cfg.Tracker.Workers
	schedCfg.FetchTimeout = cfg.FetchTimeout()
	schedCfg.EmitTimeout = cfg.EmitTimeout()
	schedCfg.Diff = domain.DiffOptions{MinShareChange: decimal.NewFromFloat(cfg.Tracker.MinShareChange)}

	sched := tracker.New(schedCfg, store, client, notifier)

	if *once {
		runOnce(ctx, sched, store, console)
		return
	}

	processor := commands.NewProcessor(store, cfg.Tracker.IntervalSeconds)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return sched.Run(gctx) })
	if bot != nil {
		listener := telegram.NewListener(bot, processor, cfg.Telegram.ChatID, cfg.PollTimeout())
		group.Go(func() error { return listener.Run(gctx) })
	}
	if cfg.HTTP.Addr != "" {
		api := httpapi.NewServer(processor, store, cfg.HTTP.APIKey, os.Stdout)
		group.Go(func() error { return api.Run(gctx, cfg.HTTP.Addr) })
	}

	if err := group.Wait(); err != nil {
		slog.Error("tracker exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("polytracker stopped cleanly")
}

func runOnce(ctx context.Context, sched *tracker.Scheduler, store *watchlist.Store, console *notify.Console) {
	results := sched.RunOnce(ctx)

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			slog.Warn("wallet poll failed", "wallet", r.Wallet, "err", r.Err)
			continue
		}
		slog.Info("wallet polled", "wallet", r.Wallet, "events", r.Events, "baseline", r.Baseline)
	}

	if err := console.PrintWatchlist(store.List()); err != nil {
		slog.Warn("print watchlist failed", "err", err)
	}
	slog.Info("single poll complete", "wallets", len(results), "failed", failed)
}

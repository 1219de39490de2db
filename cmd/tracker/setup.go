package main

import (
	"log/slog"
	"os"

	"github.com/alejandrodnm/polytracker/config"
	"github.com/alejandrodnm/polytracker/internal/adapters/storage"
	"github.com/alejandrodnm/polytracker/internal/ports"
)

// openStorage elige el backend del watchlist según la config.
func openStorage(cfg config.StorageConfig) (ports.WatchlistStorage, error) {
	if cfg.Driver == "sqlite" {
		return storage.NewSQLiteWatchlist(cfg.Path)
	}
	return storage.NewJSONWatchlist(cfg.Path)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

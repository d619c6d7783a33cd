package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/rendimientos/config"
	"github.com/alejandrodnm/rendimientos/internal/adapters/marketdata"
	"github.com/alejandrodnm/rendimientos/internal/adapters/notify"
	"github.com/alejandrodnm/rendimientos/internal/adapters/storage"
	"github.com/alejandrodnm/rendimientos/internal/api"
	"github.com/alejandrodnm/rendimientos/internal/application/comparator"
	"github.com/alejandrodnm/rendimientos/internal/ports"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one comparison cycle and exit")
	dryRun := flag.Bool("dry-run", false, "run one cycle without persisting history")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print full tables (default: compact 1-line)")
	validate := flag.Bool("validate", false, "print feed status and favorites with missing data")
	serve := flag.Bool("serve", false, "start the JSON API next to the comparison loop")
	capital := flag.Float64("capital", 0, "capital in ARS (overrides config)")
	days := flag.Int("days", 0, "horizon in days (overrides config)")
	report := flag.Int("report", 0, "print winner counts for the last N days from history and exit")
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
	if *capital > 0 {
		cfg.Settings.Capital = *capital
	}
	if *days > 0 {
		cfg.Settings.HorizonDays = *days
	}
	closeLog := setupLogger(cfg.Log)
	defer closeLog()

	slog.Info("comparador starting",
		"config", *configPath,
		"interval", cfg.Interval(),
		"schedule", cfg.Comparator.Schedule,
		"capital", cfg.Settings.Capital,
		"horizon_days", cfg.Settings.HorizonDays,
		"dry_run", *dryRun,
		"once", *once,
		"serve", *serve,
	)

	var store *storage.SQLiteStorage
	if !*dryRun {
		store, err = storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *report > 0 {
		if store == nil {
			slog.Error("report needs history; drop -dry-run")
			os.Exit(1)
		}
		if err := runReport(ctx, os.Stdout, store, *report); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
		return
	}

	client := marketdata.NewClient(cfg.Endpoints())
	notifier := notify.NewConsole(*table, *validate)

	// un *SQLiteStorage nil no puede viajar como ports.Storage no-nil
	var history ports.Storage
	if store != nil {
		history = store
	}

	cmp := comparator.New(comparator.Config{
		Interval: cfg.Interval(),
		Schedule: cfg.Comparator.Schedule,
		Location: cfg.Location(),
		Timeout:  cfg.Timeout(),
		DryRun:   *dryRun || *once,
	}, cfg.Settings, client, client, client, history, notifier)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return cmp.Run(ctx)
	})
	if *serve {
		srv := api.NewServer(cfg.Server.Listen, api.NewRouter(cmp, history, cfg.Server.AllowedOrigins))
		g.Go(func() error {
			return srv.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("comparador exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("comparador stopped cleanly")
}

// setupLogger configura slog según la config. Con log.file escribe además a un
// archivo rotado por lumberjack; devuelve la función que lo cierra.
func setupLogger(cfg config.LogConfig) func() {
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

	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotator)
		closeFn = func() { _ = rotator.Close() }
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
	return closeFn
}

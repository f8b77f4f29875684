package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"stockdash/internal/config"
	"stockdash/internal/gather"
	"stockdash/internal/httpapi"
	"stockdash/internal/market"
	"stockdash/internal/store"
	"stockdash/internal/util"
)

func main() {
	importOnly := flag.Bool("import-only", false, "import the configured source and gather once, then exit")
	flag.Parse()

	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
	if cfg.Logging.File != "" {
		var closer io.Closer
		logger, closer = util.NewFileLogger(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups)
		defer closer.Close()
	}
	util.SetDefault(logger)

	if err := run(cfg, logger, *importOnly); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, importOnly bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.Storage.Backend, cfg.Storage.SQLitePath, cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if cfg.Storage.Source != "" {
		n, err := store.Import(ctx, st, cfg.Storage.Source, logger)
		if err != nil {
			return fmt.Errorf("importing source: %w", err)
		}
		logger.Info("imported source", "path", cfg.Storage.Source, "points", n)
	}

	importer, err := newImporter(cfg, st, logger)
	if err != nil {
		return err
	}

	if importOnly {
		if importer == nil {
			return nil
		}
		return importer.Run(ctx)
	}

	srv := httpapi.New(httpapi.Config{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Service:     market.NewService(st, logger),
		Log:         logger,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if importer != nil && cfg.Gather.Schedule != "" {
		et, err := time.LoadLocation("America/New_York")
		if err != nil {
			return fmt.Errorf("loading ET timezone: %w", err)
		}
		sched := gather.NewScheduler(gctx, et, logger)
		if err := sched.Add(cfg.Gather.Schedule, importer); err != nil {
			return fmt.Errorf("scheduling %s: %w", importer.Name(), err)
		}
		sched.Start()
		g.Go(func() error {
			<-gctx.Done()
			sched.Stop()
			return nil
		})
	}

	return g.Wait()
}

// newImporter returns the Alpaca daily importer, or nil when no credentials
// are configured.
func newImporter(cfg *config.Config, st store.PriceStore, logger *slog.Logger) (*gather.DailyImporter, error) {
	if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
		logger.Info("alpaca credentials not set, daily import disabled")
		return nil, nil
	}
	importer, err := gather.NewDailyImporter(gather.NewAlpacaClient(cfg.Alpaca), st, gather.DailyOptions{
		Symbols:         cfg.Gather.Symbols,
		StartDate:       cfg.Gather.StartDate,
		Feed:            cfg.Alpaca.Feed,
		BatchSize:       cfg.Gather.BatchSize,
		RateLimitPerMin: cfg.Gather.RateLimitPerMin,
		MaxAttempts:     cfg.Gather.MaxAttempts,
		ProgressDir:     filepath.Join(cfg.Storage.DataDir, "gather"),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating importer: %w", err)
	}
	return importer, nil
}

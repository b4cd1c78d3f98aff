package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/wealthlog/wealthlog/internal/api"
	"github.com/wealthlog/wealthlog/internal/asset"
	"github.com/wealthlog/wealthlog/internal/config"
	"github.com/wealthlog/wealthlog/internal/currency"
	"github.com/wealthlog/wealthlog/internal/database"
	"github.com/wealthlog/wealthlog/internal/domain"
	"github.com/wealthlog/wealthlog/internal/export"
	"github.com/wealthlog/wealthlog/internal/fx"
	"github.com/wealthlog/wealthlog/internal/group"
	"github.com/wealthlog/wealthlog/internal/rate"
	"github.com/wealthlog/wealthlog/internal/series"
	"github.com/wealthlog/wealthlog/internal/snapshot"
	"github.com/wealthlog/wealthlog/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	app := &cli.App{
		Name:  "wealthlog",
		Usage: "track assets across currencies and chart net worth over time",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API and background workers",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations and exit",
				Action: migrate,
			},
			{
				Name:  "export",
				Usage: "export a group's wealth series to .xlsx or Google Sheets",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "group", Usage: "asset group id (default group when unset)"},
					&cli.StringFlag{Name: "currency", Value: domain.BaseCurrency, Usage: "target currency"},
					&cli.BoolFlag{Name: "counted-only", Usage: "skip assets marked as not counted"},
					&cli.StringFlag{Name: "out", Usage: "write an .xlsx file instead of Google Sheets"},
				},
				Action: exportSeries,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// connect opens the pool and applies pending migrations.
func connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create migrations sub-fs: %w", err)
	}
	applied, err := database.RunMigrations(ctx, pool, migrationsSub)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, file := range applied {
		slog.Info("migration applied", "file", file)
	}

	return pool, nil
}

func migrate(c *cli.Context) error {
	pool, err := connect(c.Context, config.Load())
	if err != nil {
		return err
	}
	pool.Close()
	slog.Info("database is up to date")
	return nil
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	pool, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Rate history
	history := rate.NewHistory(rate.NewPgRepository(pool))

	// Snapshot writer: asset mutations schedule, the worker flushes.
	snapshotRepo := snapshot.NewPgRepository(pool)
	assetRepo := asset.NewPgRepository(pool)
	snapshotSvc := snapshot.NewService(assetRepo, history, snapshotRepo)
	debouncer := snapshot.NewDebouncer(snapshotSvc, cfg.SnapshotDebounce)
	groupSvc := group.NewService(group.NewPgRepository(pool))
	assetSvc := asset.NewService(assetRepo, groupSvc, debouncer)

	currencySvc := currency.NewService(currency.NewPgRepository(pool))

	// Workers. The snapshot worker outlives the HTTP server so that writes
	// scheduled by in-flight requests are still flushed.
	snapshotCtx, stopSnapshots := context.WithCancel(context.WithoutCancel(ctx))
	defer stopSnapshots()
	snapshotWorker := worker.NewSnapshotWorker(debouncer, cfg.SnapshotTick)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		snapshotWorker.Run(snapshotCtx)
	}()

	if cfg.FXSyncEnabled() {
		fxSvc := fx.NewService(fx.NewClient(cfg.FXURL, cfg.FXRetryDelay, cfg.FXRetryMax), currencySvc, history)
		go worker.NewRateSyncWorker(fxSvc, cfg.FXSyncInterval).Run(ctx)
	} else {
		slog.Info("FX_SYNC_INTERVAL not set, external rate sync disabled")
	}

	// Start HTTP server
	srv := api.NewServer(cfg.HTTPPort, api.Services{
		Assets:     assetSvc,
		Groups:     groupSvc,
		Currencies: currencySvc,
		Rates:      history,
		Snapshots:  snapshotSvc,
		Series:     series.NewNormalizer(history),
	})

	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// The snapshot worker writes pending snapshots before returning.
	stopSnapshots()
	<-workerDone

	slog.Info("Shutdown complete")
	return nil
}

func exportSeries(c *cli.Context) error {
	ctx := c.Context
	cfg := config.Load()

	var writer export.SheetWriter
	switch {
	case c.String("out") != "":
		writer = export.NewXLSXWriter(c.String("out"))
	case cfg.SheetsEnabled():
		sw, err := export.NewSheetsWriter(ctx, cfg.GoogleSheetsID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return err
		}
		writer = sw
	default:
		return errors.New("either --out or GOOGLE_SHEETS_ID and GOOGLE_CREDENTIALS_JSON are required")
	}

	pool, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	groupID, err := group.NewService(group.NewPgRepository(pool)).Resolve(ctx, c.Int64("group"))
	if err != nil {
		return fmt.Errorf("resolving export group: %w", err)
	}

	history := rate.NewHistory(rate.NewPgRepository(pool))
	svc := export.NewService(snapshot.NewPgRepository(pool), series.NewNormalizer(history), writer)

	return svc.Export(ctx, export.Request{
		GroupID:     groupID,
		Currency:    c.String("currency"),
		CountedOnly: c.Bool("counted-only"),
	})
}

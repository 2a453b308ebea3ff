// Command importer copies the JSON dataset into Postgres so the web server
// can run with dataset.source = "postgres".
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/devraulu/alisopan/pkg/config"
	"github.com/devraulu/alisopan/pkg/logger"
	"github.com/devraulu/alisopan/pkg/storage"
)

func main() {
	path := os.Getenv("ALISOPAN_CONFIG")
	if path == "" {
		path = "config.toml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("fatal: couldn't load config", slog.Any("err", err))
		os.Exit(1)
	}

	logger.InitLogger(cfg)

	if cfg.DSN == "" {
		slog.Error("fatal: dsn is required to import")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	records, err := storage.NewJSONFileSource(cfg.Dataset.File).Load(ctx)
	if err != nil {
		slog.Error("fatal: couldn't load dataset", slog.String("file", cfg.Dataset.File), slog.Any("err", err))
		os.Exit(1)
	}

	pool, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("fatal: couldn't open database", slog.Any("err", err))
		os.Exit(1)
	}

	defer pool.Close()

	if _, err := storage.RunMigrations(pool); err != nil {
		slog.Error("fatal: failed to run migrations", "err", err)
		os.Exit(1)
	}

	store := storage.NewPostgresSource(pool)
	if err := store.ReplaceAll(ctx, records); err != nil {
		slog.Error("fatal: import failed", slog.Any("err", err))
		os.Exit(1)
	}

	slog.Info("import complete", slog.Int("records", len(records)))
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	_ "github.com/lib/pq"

	"github.com/devraulu/alisopan/pkg/catalog"
	"github.com/devraulu/alisopan/pkg/config"
	"github.com/devraulu/alisopan/pkg/logger"
	"github.com/devraulu/alisopan/pkg/storage"
	"github.com/devraulu/alisopan/pkg/web"
)

func configPath() string {
	if p := os.Getenv("ALISOPAN_CONFIG"); p != "" {
		return p
	}
	return "config.toml"
}

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal(err)
	}

	logger.InitLogger(cfg)

	src, err := openSource(cfg)
	if err != nil {
		slog.Error("fatal: couldn't open dataset source", slog.Any("err", err))
		os.Exit(1)
	}
	defer src.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cat := catalog.New(src)
	if err := cat.Reload(ctx); err != nil {
		slog.Warn("starting with an empty dataset", slog.Any("err", err))
	}

	srv, err := web.New(cfg, cat)
	if err != nil {
		slog.Error("fatal: couldn't build web server", slog.Any("err", err))
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var wg sync.WaitGroup

	switch {
	case cfg.Dataset.Source == config.SourceJSON && cfg.Dataset.Watch:
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := cat.Watch(ctx, cfg.Dataset.File); err != nil {
				slog.Error("dataset watcher stopped", slog.Any("err", err))
			}
		}()
	case cfg.Dataset.Source == config.SourcePostgres:
		wg.Add(1)
		go func() {
			defer wg.Done()
			cat.Poll(ctx, cfg.Dataset.GetRefreshInterval())
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("starting web server", "addr", cfg.Server.Addr, "records", cat.Len())
		serveErr <- httpServer.ListenAndServe()
	}()

	appSignal := make(chan os.Signal, 1)
	signal.Notify(appSignal, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-appSignal:
		slog.Info("received system signal", slog.String("signal", s.String()))
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("web server failed", slog.Any("err", err))
		}
	}

	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", slog.Any("err", err))
	}

	wg.Wait()
	slog.Info("shutdown complete")
}

func openSource(cfg *config.Config) (storage.Source, error) {
	if cfg.Dataset.Source != config.SourcePostgres {
		return storage.NewJSONFileSource(cfg.Dataset.File), nil
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, err
	}

	if _, err := storage.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return storage.NewPostgresSource(db), nil
}

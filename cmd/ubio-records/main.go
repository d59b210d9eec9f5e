package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ubio-intake/common/database"
	"ubio-intake/common/logger"
	"ubio-intake/internal/config"
	httpapi "ubio-intake/internal/http"
	"ubio-intake/internal/metrics"
	"ubio-intake/internal/repository"
	"ubio-intake/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "ubio-records")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	m := metrics.NewCollector("ubio-records")

	var repo repository.RecordsRepository = repository.NewMemoryRecordsRepository()
	var db *sql.DB
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			pg := repository.NewPostgresRecordsRepository(d)
			schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 10*time.Second)
			err = pg.EnsureSchema(schemaCtx)
			schemaCancel()
			if err != nil {
				log.Warn("schema setup failed, falling back to memory store", zap.Error(err))
				_ = database.Close(d)
			} else {
				db = d
				repo = pg
				log.Info("DB enabled for ubio-records")
			}
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	}

	router := httpapi.NewRouter(m, log)
	router.RegisterHealthRoutes()
	router.RegisterRecordsRoutes(httpapi.NewRecordsHandler(repo, log))
	router.HandleHandler("/metrics", m.Handler())

	srv := service.NewServer("ubio-records", cfg.HTTP.RecordsAddr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if db != nil {
		_ = database.Close(db)
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ubio-intake/common/logger"
	commonredis "ubio-intake/common/redis"
	"ubio-intake/internal/config"
	httpapi "ubio-intake/internal/http"
	"ubio-intake/internal/metrics"
	"ubio-intake/internal/repository"
	"ubio-intake/internal/service"
	"ubio-intake/internal/store"
	"ubio-intake/internal/tableview"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "ubio-intake")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	loc := cfg.Location()
	m := metrics.NewCollector("ubio-intake")

	// Local record cache: Redis, or process memory when Redis is not reachable.
	var kv store.KV
	var redisClient *commonredis.Client
	if cfg.Cache.Backend == config.CacheBackendRedis {
		redisClient = commonredis.NewRedisClient(&cfg.Redis)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := commonredis.Ping(pingCtx, redisClient); err != nil {
			log.Warn("redis unavailable, local cache falls back to memory", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = commonredis.Close(redisClient)
			redisClient = nil
		}
		pingCancel()
	}
	if redisClient != nil {
		kv = store.NewRedisKV(redisClient)
	} else {
		kv = store.NewMemoryKV()
	}
	local := repository.NewLocalRecords(kv, cfg.Cache.Key, log)

	merge := service.Merge
	if cfg.Table.MergeMode == config.MergeModeDedup {
		merge = service.MergeLatest(loc)
	}
	remote := service.NewUserInfoClient(cfg.Remote, log)
	persistence := service.NewPersistence(remote, local, merge, m, log)

	intake := service.NewIntakeService(persistence, loc, m, log)
	table := tableview.NewController(persistence, cfg.Table.RefreshInterval, loc, m, log)

	router := httpapi.NewRouter(m, log)
	router.RegisterHealthRoutes()
	router.RegisterIntakeRoutes(httpapi.NewIntakeHandler(intake, table, m, log))
	router.HandleHandler("/metrics", m.Handler())

	srv := service.NewServer("ubio-intake", cfg.HTTP.Addr, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	table.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", zap.Error(err))
		}
		cancel()
	}

	table.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = commonredis.Close(redisClient)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/lyipi/4bpchoquecoe/config"
	"github.com/lyipi/4bpchoquecoe/internal/api/handler"
	"github.com/lyipi/4bpchoquecoe/internal/api/router"
	"github.com/lyipi/4bpchoquecoe/internal/realtime"
	"github.com/lyipi/4bpchoquecoe/internal/repository"
	"github.com/lyipi/4bpchoquecoe/internal/service"
	"github.com/lyipi/4bpchoquecoe/pkg/database"
	"github.com/lyipi/4bpchoquecoe/pkg/jwt"
	applogger "github.com/lyipi/4bpchoquecoe/pkg/logger"
	"github.com/lyipi/4bpchoquecoe/pkg/metrics"
	"github.com/lyipi/4bpchoquecoe/pkg/redis"
)

func main() {
	// 1. config
	cfg, err := config.Load(os.Getenv("BPC_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	// 4. redis (optional: without it the feed is in-process and nothing is cached)
	var (
		rdb   *redis.Client
		feed  realtime.Feed
		cache service.SnapshotCache
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("redis unavailable, running with in-process change feed", zap.Error(err))
			rdb = nil
		}
	}
	if rdb != nil {
		feed = realtime.NewRedisFeed(rdb, logger)
		cache = rdb
	} else {
		feed = realtime.NewLocalFeed()
	}

	// 5. wiring: Repository → Service → Handler
	m := metrics.New(prometheus.DefaultRegisterer)
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db, cfg.Store.Timeout, feed, logger)
	svc := service.NewService(cfg, repo, cache, m, logger)
	h := handler.NewHandler(svc)

	// 6. ranking recomputation follows the change feed
	bgCtx, stopBackground := context.WithCancel(context.Background())
	recomputer := realtime.NewRecomputer(feed, svc.Ranking.Refresh, cfg.Ranking.Debounce, logger)
	recomputeDone := make(chan struct{})
	go func() {
		defer close(recomputeDone)
		if err := recomputer.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("ranking recomputer stopped", zap.Error(err))
		}
	}()

	// 7. router
	engine := router.Setup(cfg, h, jwtMgr, rdb, db, m, logger)

	// 8. HTTP server; no write timeout, the elapsed stream stays open
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	// 9. graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// open elapsed streams hold Shutdown until ctx expires
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	stopBackground()
	<-recomputeDone

	if err := sqlDB.Close(); err != nil {
		logger.Warn("close database", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("stopped")
}

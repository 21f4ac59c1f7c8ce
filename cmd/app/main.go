package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bowling_engine/internal/bus"
	"bowling_engine/internal/config"
	"bowling_engine/internal/db"
	httpServer "bowling_engine/internal/http"
	"bowling_engine/internal/http/handlers"
	"bowling_engine/internal/logger"
	"bowling_engine/internal/repository"
	"bowling_engine/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg := config.Load()

	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// хранилище: postgres или память процесса
	var store repository.Store
	if cfg.DatabaseURL != "" {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal("migrations failed", "error", err)
		}
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database connection failed", "error", err)
		}
		defer pool.Close()
		store = repository.NewPostgresStore(pool)
	} else {
		log.Warn("DATABASE_URL not set - using in-memory store")
		store = repository.NewMemoryStore()
	}

	// шина и дедупликация: redis или память процесса
	var (
		queue bus.Queue
		dedup bus.Deduper
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis connection failed", "error", err)
		}
		queue = bus.NewRedisQueue(rdb, cfg.WorkerPartitions)
		dedup = bus.NewRedisDeduper(rdb, cfg.DedupTTL)
		log.Info("redis connected", "addr", cfg.RedisAddr)
	} else {
		log.Warn("REDIS_ADDR not set - using in-process queue")
		mq := bus.NewMemoryQueue(cfg.WorkerPartitions)
		defer mq.Close()
		queue = mq
		dedup = bus.NewMemoryDeduper(cfg.DedupTTL)
	}

	router := service.NewCommandRouter(store, queue, dedup)
	bowling := service.NewBowlingService(store, queue)

	if cfg.LogJSON {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), httpServer.RequestLogger(), httpServer.CORS())
	httpServer.RegisterRoutes(r, handlers.New(bowling, Version))

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bus.NewRunner(queue, router).Run(gctx)
	})
	g.Go(func() error {
		return bus.NewOutboxRelay(store, queue, cfg.OutboxInterval).Run(gctx)
	})
	g.Go(func() error {
		log.Info("server started", "port", cfg.AppPort, "version", Version, "partitions", queue.Partitions())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped with error", "error", err)
	}
	log.Info("server exited")
}

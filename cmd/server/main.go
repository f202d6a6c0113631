package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/connect-metrics/internal/api"
	"github.com/ignite/connect-metrics/internal/cache"
	"github.com/ignite/connect-metrics/internal/config"
	"github.com/ignite/connect-metrics/internal/daterange"
	"github.com/ignite/connect-metrics/internal/ingest"
	"github.com/ignite/connect-metrics/internal/pkg/clock"
	"github.com/ignite/connect-metrics/internal/pkg/distlock"
	"github.com/ignite/connect-metrics/internal/pkg/logger"
	"github.com/ignite/connect-metrics/internal/pkg/promstats"
	"github.com/ignite/connect-metrics/internal/scheduler"
	"github.com/ignite/connect-metrics/internal/service/dashboard"
	"github.com/ignite/connect-metrics/internal/storage"
)

func main() {
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		fatal("failed to load config", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(!cfg.Log.DisableRedaction)

	loc, err := cfg.Location()
	if err != nil {
		fatal("invalid timezone", err)
	}
	clk := clock.System(loc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := connectRedis(ctx, cfg.Redis.URL)
	if redisClient != nil {
		defer redisClient.Close()
	}
	db := openDatabase(ctx, cfg.Database.URL)
	if db != nil {
		defer db.Close()
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		fatal("failed to initialize storage", err)
	}
	logger.Info("storage initialized", "backend", store.Name())

	backends := cache.Backends{Redis: redisClient, DB: db}
	if cfg.Cache.Backend == "dynamodb" {
		awsCfg, err := storage.LoadAWSConfig(ctx, cfg.Storage)
		if err != nil {
			fatal("failed to load AWS config for DynamoDB", err)
		}
		backends.Dynamo = dynamodb.NewFromConfig(awsCfg)
	}
	cacheStore, err := cache.New(cfg.Cache, backends)
	if err != nil {
		fatal("failed to initialize cache", err)
	}
	logger.Info("cache initialized", "backend", cacheStore.Name(), "ttl", cfg.Cache.TTL().String())

	locks := distlock.NewProvider(redisClient, db, cfg.Cache.LockTTL())
	logger.Info("recompute locking", "backend", locks.Backend())

	stats := promstats.New(prometheus.DefaultRegisterer)

	loader := ingest.NewLoader(store, clk, stats)
	svc := dashboard.NewService(loader, cacheStore, cfg.Metrics, clk, dashboard.Options{
		TTL:   cfg.Cache.TTL(),
		Locks: locks,
		Stats: stats,
	})
	uploader := ingest.NewUploader(store, svc, clk, stats)

	var warmup *scheduler.WarmupScheduler
	if cfg.Schedule.Enabled {
		filters := make([]daterange.Filter, 0, len(cfg.Schedule.Filters))
		for _, f := range cfg.Schedule.Filters {
			parsed, err := daterange.Parse(f)
			if err != nil {
				fatal("invalid warm-up filter", err)
			}
			filters = append(filters, parsed)
		}
		warmup = scheduler.NewWarmupScheduler(svc, cfg.Schedule.WarmupCron, loc, dashboard.Views, filters)
		if err := warmup.Start(); err != nil {
			fatal("failed to start warm-up scheduler", err)
		}
	}

	hc := api.NewHealthChecker(
		api.Component{Name: "storage", Critical: true, Pinger: store},
		api.Component{Name: "cache", Critical: true, Pinger: cacheStore},
		api.Component{Name: "redis", Pinger: redisPinger(redisClient)},
		api.Component{Name: "database", Pinger: dbPinger(db)},
	)
	handlers := api.NewHandlers(api.Deps{
		Views:          svc,
		Uploads:        uploader,
		Files:          loader,
		Clock:          clk,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.SetupRoutes(handlers, hc, cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "addr", server.Addr, "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	<-done
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer shutdownCancel()

	if warmup != nil {
		warmup.Stop(shutdownCtx)
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
}

// connectRedis returns nil when url is empty or the server is unreachable;
// callers fall back to Postgres or in-process locking.
func connectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		logger.Info("redis not configured (REDIS_URL not set)")
		return nil
	}
	var client *redis.Client
	if opts, err := redis.ParseURL(url); err != nil {
		client = redis.NewClient(&redis.Options{Addr: url})
	} else {
		client = redis.NewClient(opts)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis connection failed", "error", err)
		client.Close()
		return nil
	}
	logger.Info("redis connected")
	return client
}

// openDatabase returns nil when url is empty or the database is unreachable.
func openDatabase(ctx context.Context, url string) *sql.DB {
	if url == "" {
		logger.Info("database not configured (DATABASE_URL not set)")
		return nil
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		logger.Warn("failed to open database", "error", err)
		return nil
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(3)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("database ping failed", "error", err)
		db.Close()
		return nil
	}
	logger.Info("database connected")
	return db
}

func redisPinger(c *redis.Client) api.Pinger {
	if c == nil {
		return nil
	}
	return api.PingFunc(func(ctx context.Context) error { return c.Ping(ctx).Err() })
}

func dbPinger(db *sql.DB) api.Pinger {
	if db == nil {
		return nil
	}
	return api.PingFunc(db.PingContext)
}

func fatal(msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

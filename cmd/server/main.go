package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/streamhaus/chatbridge/internal/app"
	"github.com/streamhaus/chatbridge/internal/broadcast"
	"github.com/streamhaus/chatbridge/internal/config"
	"github.com/streamhaus/chatbridge/internal/database"
	"github.com/streamhaus/chatbridge/internal/kick"
	"github.com/streamhaus/chatbridge/internal/logging"
	"github.com/streamhaus/chatbridge/internal/reader"
	"github.com/streamhaus/chatbridge/internal/redis"
	"github.com/streamhaus/chatbridge/internal/scheduler"
	"github.com/streamhaus/chatbridge/internal/server"
	"github.com/streamhaus/chatbridge/internal/twitch"
)

// redisPinger adapts the Redis client to the server's readiness probe.
type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return db
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, sched *scheduler.Scheduler, readers *reader.Registry) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		sched.StopAll()
		readers.StopAll()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	repo := database.NewToolsConfigRepo(pool)

	// The Redis cache layer is optional. Without it config reads go straight
	// to Postgres.
	var (
		blobs       app.BlobStore = repo
		invalidator app.CacheInvalidator
		cachePing   redisPinger
		haveRedis   bool
	)
	if cfg.RedisURL != "" {
		redisClient := setupRedis(context.Background(), cfg)
		defer func() { _ = redisClient.Close() }()

		cache := redis.NewToolsConfigCache(redisClient, repo)
		blobs = cache
		invalidator = cache
		cachePing = redisPinger{client: redisClient}
		haveRedis = true
	}

	configs := app.NewConfigSource(blobs)

	twitchSender := twitch.NewSender(twitch.TLSDialer{}, clock, twitch.SenderOptions{Addr: cfg.TwitchIRCAddr})
	kickClient := kick.NewBridgeClient(cfg.BridgeTimeout)
	dispatcher := broadcast.NewDispatcher(configs, twitchSender, kickClient)

	sched := scheduler.New(dispatcher, clock)
	readers := reader.NewRegistry(twitch.TLSDialer{}, clock, cfg.TwitchIRCAddr)

	appSvc := app.NewService(configs, dispatcher, readers, sched, repo, invalidator)

	// Pass nil explicitly to avoid a typed-nil interface.
	var srv *server.Server
	if haveRedis {
		srv = server.NewServer(cfg, appSvc, pool, cachePing)
	} else {
		srv = server.NewServer(cfg, appSvc, pool, nil)
	}

	done := runGracefulShutdown(srv, sched, readers)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

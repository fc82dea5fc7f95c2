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

	"skillswap-backend/internal/api"
	"skillswap-backend/internal/auth"
	"skillswap-backend/internal/config"
	"skillswap-backend/internal/logging"
	"skillswap-backend/internal/repository"
	"skillswap-backend/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// A missing .env is fine; the environment may already be set (Docker, CI).
	envErr := godotenv.Load()

	var cfg config.Config
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	if envErr != nil {
		log.Debug(context.Background(), "no .env file loaded", "error", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(context.Background(), "server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logging.Logger) error {
	initCtx, cancelInit := context.WithTimeout(ctx, 10*time.Second)
	defer cancelInit()

	store, err := openStore(initCtx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.EnsureSkills(initCtx, repository.DefaultSkills)
	if err != nil {
		return fmt.Errorf("seed skills: %w", err)
	}
	log.Info(initCtx, "skill catalog ready", "added", n)

	tokens, err := auth.NewTokenService(cfg.SessionSecret, cfg.SessionMaxAge)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	// Left nil when S3 is not configured; the upload endpoint then answers 503.
	var presigner service.ObjectPresigner
	if cfg.S3Enabled() {
		s3svc, err := service.NewS3ServiceFromEnv(initCtx, cfg.AWSRegion, cfg.AWSEndpoint, cfg.AWSBucketName)
		if err != nil {
			return fmt.Errorf("s3: %w", err)
		}
		presigner = s3svc
		log.Info(initCtx, "profile photo uploads enabled", "bucket", cfg.AWSBucketName)
	}

	sessions := service.NewSessionService(store, tokens, service.SessionConfig{
		Timeout:         cfg.SessionTimeout,
		SlideOnActivity: cfg.SessionSlideOnActivity,
	}, log)

	handler := api.NewHandler(api.Services{
		Sessions: sessions,
		Users:    service.NewUserService(store, presigner, log),
		Skills:   service.NewSkillService(store, log),
		Swaps:    service.NewSwapService(store, log),
	}, store, api.Options{
		CORSOrigins:  cfg.CORSOrigins,
		CookieSecure: cfg.CookieSecure,
		CookieMaxAge: cfg.SessionMaxAge,
	}, log)

	go service.NewSessionSweeper(sessions, cfg.SessionSweepInterval, log).Run(ctx)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "server listening", "addr", srv.Addr, "storage", cfg.StorageDriver, "sessions", cfg.SessionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	log.Info(context.Background(), "shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info(context.Background(), "server stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, log logging.Logger) (repository.Store, error) {
	var store repository.Store

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pg, err := repository.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.RunMigrations(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		log.Info(ctx, "connected to postgres, migrations applied")
		store = pg
	default:
		log.Warn(ctx, "using in-memory storage; data is lost on restart")
		store = repository.NewInMemoryStore()
	}

	if cfg.SessionStore == config.SessionStoreRedis {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		sessions := repository.NewRedisSessionStore(rdb)
		if err := sessions.Ping(ctx); err != nil {
			rdb.Close()
			store.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info(ctx, "sessions stored in redis", "addr", cfg.RedisAddr)
		store = repository.WithSessionStore(store, sessions)
	}
	return store, nil
}

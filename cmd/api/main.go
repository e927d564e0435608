package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aira-backend/internal/assistant"
	"aira-backend/internal/audit"
	"aira-backend/internal/auth"
	"aira-backend/internal/calls"
	"aira-backend/internal/config"
	"aira-backend/internal/observability"
	"aira-backend/pkg/logger"
	"aira-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// deps carries everything routes need; built once in main.
type deps struct {
	cfg       config.Config
	log       *slog.Logger
	db        *sql.DB
	rdb       *redis.Client
	auth      *auth.Manager
	tracker   *calls.Tracker
	store     calls.Repository
	metrics   *observability.Metrics
	assistant *assistant.Service
}

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("dotenv load failed", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	d := deps{cfg: cfg, log: log}

	var (
		sessions calls.Repository = calls.NewMemoryRepo()
		events   audit.Repository = audit.NewMemoryRepo()
	)
	if cfg.Store.Driver == config.StorePostgres {
		d.db, err = utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
		if err != nil {
			log.Error("postgres init failed", "err", err)
			os.Exit(1)
		}
		defer d.db.Close()

		pgSessions := calls.NewPostgresRepo(d.db)
		pgEvents := audit.NewPostgresRepo(d.db)
		if err := pgSessions.EnsureSchema(rootCtx); err != nil {
			log.Error("call schema failed", "err", err)
			os.Exit(1)
		}
		if err := pgEvents.EnsureSchema(rootCtx); err != nil {
			log.Error("audit schema failed", "err", err)
			os.Exit(1)
		}
		sessions, events = pgSessions, pgEvents
	}
	d.store = sessions

	var locker calls.Locker = calls.NewKeyedMutex()
	if cfg.RedisEnabled() {
		d.rdb, err = utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer d.rdb.Close()
		locker = calls.NewRedisLocker(d.rdb, calls.RedisLockerOptions{Logger: log})
	}

	if cfg.AuthEnabled() {
		d.auth, err = auth.NewManager(cfg.Auth)
		if err != nil {
			log.Error("auth init failed", "err", err)
			os.Exit(1)
		}
	}

	retention, err := calls.NewRetentionPolicy(cfg.Retention.Policy, cfg.RetentionWindow())
	if err != nil {
		log.Error("retention policy invalid", "err", err)
		os.Exit(1)
	}

	d.metrics = observability.NewMetrics("aira")
	d.tracker = calls.NewTracker(sessions,
		calls.WithLocker(locker),
		calls.WithRetention(retention),
		calls.WithEventSink(audit.NewService(events)),
		calls.WithObserver(d.metrics),
	)

	if retention.Name() == calls.RetentionDelete {
		sweeper, err := calls.NewSweeper(d.tracker, cfg.Retention.Schedule, log)
		if err != nil {
			log.Error("retention schedule invalid", "err", err)
			os.Exit(1)
		}
		sweeper.Start()
		defer func() { <-sweeper.Stop().Done() }()
	}

	if cfg.AssistantEnabled() {
		d.assistant = assistant.NewService(assistant.NewClient(cfg.OpenAI), cfg.OpenAI)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, d)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("api listening",
			"addr", srv.Addr,
			"store", cfg.Store.Driver,
			"redis_locks", cfg.RedisEnabled(),
			"auth", cfg.AuthEnabled(),
			"assistant", cfg.AssistantEnabled(),
			"retention", retention.Name(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

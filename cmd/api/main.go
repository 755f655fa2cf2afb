package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"incall-control/internal/audit"
	"incall-control/internal/auth"
	"incall-control/internal/command"
	"incall-control/internal/config"
	"incall-control/internal/httpapi"
	"incall-control/internal/registry"
	"incall-control/internal/telephony"
	"incall-control/pkg/logger"
	"incall-control/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	store, err := registry.NewRedisStore(rdb, cfg.Telephony.SnapshotTTL)
	if err != nil {
		log.Error("registry init failed", "err", err)
		os.Exit(1)
	}

	auditRepo := audit.NewPostgresRepo(db)
	auditSvc := audit.NewService(auditRepo)

	// Telephony collaborators. The local implementations stand in for the
	// on-device telephony layer; swap these for the real adapters when the
	// service is embedded next to one.
	manager := telephony.NewLocalManager(store, log)

	dispatcher, err := command.New(command.Deps{
		Registry:  store,
		Manager:   manager,
		Audio:     telephony.NewLocalAudioRouter(log),
		Tones:     telephony.NewLocalTonePlayer(log),
		Messenger: telephony.NewLocalRejectMessenger(log),
		HandsFree: telephony.NoopHandsFreeNotifier{},
		Audit:     auditSvc,
		Logger:    log,
	})
	if err != nil {
		log.Error("dispatcher init failed", "err", err)
		os.Exit(1)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.Handlers{
		Commands: dispatcher,
		Auth:     authManager,
		Audit:    auditRepo,
	}
	registerRoutes(r, h,
		auth.RequireAccessToken(authManager),
		httpapi.CommandCap(rdb, cfg.Telephony.CommandCap, cfg.Telephony.CommandCapTTL),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
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

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

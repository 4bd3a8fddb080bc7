package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookpasal/bookpasal-backend/internal/api"
	"github.com/bookpasal/bookpasal-backend/internal/api/handlers"
	"github.com/bookpasal/bookpasal-backend/internal/auth"
	"github.com/bookpasal/bookpasal-backend/internal/config"
	"github.com/bookpasal/bookpasal-backend/internal/db"
	"github.com/bookpasal/bookpasal-backend/internal/esewa"
	"github.com/bookpasal/bookpasal-backend/internal/logger"
	"github.com/bookpasal/bookpasal-backend/internal/metrics"
	"github.com/bookpasal/bookpasal-backend/internal/middleware"
	"github.com/bookpasal/bookpasal-backend/internal/repository/postgres"
	"github.com/bookpasal/bookpasal-backend/internal/services"
	"github.com/bookpasal/bookpasal-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	// The MAC key is required before serving anything: no purchase may
	// be initiated and no callback "verified" against an empty secret.
	if err := cfg.Validate(); err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}
	signer, err := esewa.NewSigner(cfg.EsewaSecret)
	if err != nil {
		log.Error("esewa signer", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, 15*time.Minute, 14*24*time.Hour)
	userSvc := services.NewUserService(repos.Users, tm)
	bookSvc := services.NewBookService(repos.Books)
	paySvc := services.NewPaymentService(repos.Books, repos.Orders, repos.AuditLogs, signer, wp)

	metrics.Init()
	authMW := middleware.NewAuthMiddleware(tm)
	r := api.NewRouter(cfg, authMW, handlers.NewAuthHandler(userSvc), handlers.NewPaymentHandler(paySvc), bookSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

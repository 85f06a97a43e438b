package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/trailquest/trailquest-backend/api/controllers"
	"github.com/trailquest/trailquest-backend/api/routes"
	"github.com/trailquest/trailquest-backend/internal/auth"
	"github.com/trailquest/trailquest-backend/internal/users"
	"github.com/trailquest/trailquest-backend/pkg/config"
	"github.com/trailquest/trailquest-backend/pkg/db"
	"github.com/trailquest/trailquest-backend/pkg/logger"
	"github.com/trailquest/trailquest-backend/pkg/mailer"
	"github.com/trailquest/trailquest-backend/pkg/metrics"
	"github.com/trailquest/trailquest-backend/pkg/migrate"
	"github.com/trailquest/trailquest-backend/pkg/redis"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "trailquest-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "database connection failed", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "auto migration failed", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logg.Error(ctx, "redis connection failed", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	authMetrics := metrics.NewAuthMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	var mailSender mailer.Sender
	if cfg.SMTP.Host != "" {
		smtpSender, err := mailer.NewSMTPSender(cfg.SMTP)
		if err != nil {
			logg.Error(ctx, "smtp configuration invalid", err)
			os.Exit(1)
		}
		mailSender = smtpSender
	} else if cfg.App.IsDev() {
		logg.Warn(ctx, "no smtp host configured, mail will be logged only")
		mailSender = mailer.NewLogSender(logg)
	} else {
		logg.Error(ctx, "smtp host is required outside dev", errors.New("missing TRAILQUEST_SMTP_HOST"))
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	usersService := users.NewService(userRepo, logg)
	authService := auth.NewService(cfg, userRepo, mailSender, authMetrics, logg)

	router := routes.New(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Auth:        controllers.NewAuthController(cfg, authService, logg),
		Users:       controllers.NewUsersController(cfg, usersService, logg),
		Health:      controllers.NewHealthController(dbClient, redisClient),
		UserFinder:  userRepo,
		RateStore:   redisClient,
		HTTPMetrics: httpMetrics,
		Registry:    registry,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "server failed", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(shutdownCtx, "graceful shutdown failed", err)
	}
	logg.Info(context.Background(), "server stopped")
}

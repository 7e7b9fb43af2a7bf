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

	"github.com/rs/zerolog"

	"github.com/JeanGrijp/contact-limiter/internal/adapters/clock"
	"github.com/JeanGrijp/contact-limiter/internal/adapters/http/router"
	"github.com/JeanGrijp/contact-limiter/internal/adapters/mailer"
	"github.com/JeanGrijp/contact-limiter/internal/adapters/metrics"
	"github.com/JeanGrijp/contact-limiter/internal/adapters/storage/memory"
	redisstorage "github.com/JeanGrijp/contact-limiter/internal/adapters/storage/redis"
	"github.com/JeanGrijp/contact-limiter/internal/config"
	"github.com/JeanGrijp/contact-limiter/internal/core/ports"
	"github.com/JeanGrijp/contact-limiter/internal/core/services"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger = logger.Level(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	realClock := clock.Real{}

	storage, closeFn, err := initStorage(ctx, cfg, realClock, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init storage")
	}
	defer closeFn()

	limiter, err := services.NewRateLimiterService(storage, realClock, services.Config{
		Rule: cfg.RateLimiter.Rule,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create limiter")
	}

	sender, err := services.NewContactService(mailer.NewLogMailer(logger), services.ContactConfig{
		OwnerEmail: cfg.Contact.OwnerEmail,
		OwnerName:  cfg.Contact.OwnerName,
		FromEmail:  cfg.Contact.FromEmail,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create contact service")
	}

	srv := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router.New(router.Deps{
			Limiter:         limiter,
			Sender:          sender,
			Metrics:         metrics.New(),
			Logger:          logger,
			CORSAllowOrigin: cfg.Server.CORSAllowOrigin,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil {
			errCh <- err
		}
	}()

	logger.Info().
		Str("addr", srv.Addr).
		Str("storage", cfg.Storage.Type).
		Int("requests", cfg.RateLimiter.Rule.Requests).
		Dur("window", cfg.RateLimiter.Rule.Window).
		Msg("server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func initStorage(ctx context.Context, cfg config.Config, c ports.Clock, logger zerolog.Logger) (ports.Storage, func(), error) {
	switch cfg.Storage.Type {
	case "memory":
		storage := memory.New()
		if interval := cfg.RateLimiter.SweepInterval; interval > 0 {
			go storage.RunSweeper(ctx, interval, cfg.RateLimiter.Rule.Window, c)
		}
		logger.Warn().Msg("in-memory rate limiting: counters reset on restart and are not shared between instances")
		return storage, func() {}, nil
	case "redis":
		redisCfg := redisstorage.Config{
			Addr:     fmt.Sprintf("%s:%d", cfg.Storage.Redis.Host, cfg.Storage.Redis.Port),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		}
		storage, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, nil, err
		}
		return storage, func() {
			if err := storage.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close redis storage")
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}

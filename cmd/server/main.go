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

	"github.com/Clark-Hu/library-service/internal/config"
	httpserver "github.com/Clark-Hu/library-service/internal/http"
	"github.com/Clark-Hu/library-service/internal/logging"
	"github.com/Clark-Hu/library-service/internal/migrations"
	"github.com/Clark-Hu/library-service/internal/ratelimit"
	"github.com/Clark-Hu/library-service/internal/repository"
	"github.com/Clark-Hu/library-service/internal/service"
	"github.com/Clark-Hu/library-service/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("library service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel)

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		return err
	}
	defer st.Close()

	if cfg.DBAutoMigrate {
		if err := migrations.Up(dbCtx, st.Pool(), logger); err != nil {
			return err
		}
	}

	repo := repository.New(st)
	aggregator := service.NewRatingAggregator(repo.Borrowings, repo.Books)
	borrowings := service.NewBorrowingService(repo.Borrowings, aggregator, logger)

	deps := httpserver.Dependencies{
		Health: st,
		Users:  service.NewUserService(repo.Users, repo.Books, borrowings),
		Books:  service.NewBookService(repo.Books),
		Logger: logger,
	}

	if cfg.RateLimitEnabled() {
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisPrefix,
			cfg.RateLimitMax,
			time.Duration(cfg.RateLimitWindowSecs)*time.Second,
		)
		if err != nil {
			return err
		}
		defer limiter.Close()
		if err := limiter.Ping(dbCtx); err != nil {
			logger.Warn("rate limiter redis unreachable at startup", "addr", cfg.RedisAddr, "error", err)
		}
		deps.Limiter = limiter
	} else {
		logger.Info("rate limiting disabled, REDIS_ADDR not set")
	}

	server := httpserver.New(cfg, deps)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	var serveErr error
	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("graceful shutdown error", "error", err)
	}
	return serveErr
}

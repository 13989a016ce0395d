package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/storepulse/storepulse/internal/config"
	httpserver "github.com/storepulse/storepulse/internal/http"
	"github.com/storepulse/storepulse/internal/identity"
	"github.com/storepulse/storepulse/internal/repository"
	"github.com/storepulse/storepulse/internal/session"
	"github.com/storepulse/storepulse/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := storage.New(dbCtx, cfg.DBURL, storage.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer st.Close()

	idClient, err := identity.NewHTTPClient(cfg.IdentityURL, cfg.IdentityAPIKey, time.Duration(cfg.IdentityTimeoutSecs)*time.Second, logger)
	if err != nil {
		logger.Fatal("init identity client", zap.Error(err))
	}

	sessionTTL := time.Duration(cfg.SessionTTLSecs) * time.Second
	sessionStore, err := buildSessionStore(ctx, cfg, sessionTTL)
	if err != nil {
		logger.Fatal("init session store", zap.Error(err))
	}
	sessions := session.NewManager(idClient, sessionStore, sessionTTL, logger)

	repo := repository.New(st)
	server := httpserver.New(cfg, st, repo, sessions, idClient, logger)

	logger.Info("starting server",
		zap.String("port", cfg.Port),
		zap.String("session_backend", cfg.SessionBackend))

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error("server error", zap.Error(err))
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}

func buildLogger(cfg config.Config) (*zap.Logger, error) {
	var logConfig zap.Config
	if cfg.AppEnv == "production" {
		logConfig = zap.NewProductionConfig()
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = zapcore.InfoLevel
	}
	logConfig.Level.SetLevel(level)

	return logConfig.Build()
}

func buildSessionStore(ctx context.Context, cfg config.Config, ttl time.Duration) (session.Store, error) {
	if cfg.SessionBackend != "redis" {
		return session.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}
	return session.NewRedisStore(client, ttl), nil
}

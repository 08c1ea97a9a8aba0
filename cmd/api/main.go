package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yardgate/internal/httpapi"
	"yardgate/pkg/config"
	"yardgate/pkg/db"
	"yardgate/pkg/logger"
	pkgredis "yardgate/pkg/redis"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{ServiceName: "yardgate-api", Level: cfg.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("db open")
	}
	defer conn.Close()

	if cfg.MigrationsPath != "" {
		if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
			log.Fatal().Err(err).Msg("migrate")
		}
	}

	var idem pkgredis.IdempotencyStore
	if cfg.RedisAddr != "" {
		rc, err := pkgredis.New(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("redis open")
		}
		defer func() { _ = rc.Close() }()
		idem = rc
	}

	router := httpapi.NewRouter(httpapi.Dependencies{
		Cfg:   cfg,
		DB:    conn,
		Log:   log,
		Redis: idem,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http serve")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
}

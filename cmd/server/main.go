// Command server runs the conversation core API: HTTP transport, websocket
// gateway, SQLite persistence, optional redis list cache, and OpenTelemetry
// tracing. Configuration comes entirely from the environment (plus an
// optional .env file in development).
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/cache"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/config"
	httpapi "github.com/eduzayn/Educhat-Versao-Final-sub003/internal/http"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/http/middleware"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/observability"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/repo"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/services"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/sysutil"
	"github.com/eduzayn/Educhat-Versao-Final-sub003/internal/ws"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	sysutil.SetLogLevel(cfg.LogLevel)
	log.Info().Str("version", version).Str("port", cfg.Port).Msg("starting educhat core")

	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	var listCache cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pctx).Err()
		cancel()
		if err != nil {
			// A dead cache is a degraded start, not a failed one.
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; list cache disabled")
		} else {
			listCache = cache.NewRedis(rdb, cfg.RedisPrefix, cache.WithTTL(cfg.CacheTTL))
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("list cache enabled")
		}
	}

	hub := ws.NewHub()
	perms := services.NewStaticPermissions(cfg.AdminUserIDs)

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	// Provider adapters are registered by the deployment; the core runs
	// without one and reports provider_error on sends.
	httpapi.RegisterRoutes(r, db, hub, nil, perms, listCache, cfg)

	// Feed the websocket client gauge; the hub owns the count.
	gaugeDone := make(chan struct{})
	go func() {
		t := time.NewTicker(15 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				middleware.SetWSClients(hub.ClientCount())
			case <-gaugeDone:
				return
			}
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	close(gaugeDone)

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("stopped")
}

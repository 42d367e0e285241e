package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/vita/internal/auth"
	"github.com/geocoder89/vita/internal/config"
	httpx "github.com/geocoder89/vita/internal/http"
	"github.com/geocoder89/vita/internal/http/handlers"
	"github.com/geocoder89/vita/internal/observability"
	"github.com/geocoder89/vita/internal/ratelimit"
	"github.com/geocoder89/vita/internal/redisclient"
	"github.com/geocoder89/vita/internal/repo"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, "vita-api", cfg.OTelEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	prom := observability.NewProm()

	store, err := repo.Open(ctx, cfg, prom)
	if err != nil {
		log.Error("store init failed", "err", err, "demo_mode", cfg.DemoMode)
		os.Exit(1)
	}

	deps := httpx.Deps{
		Cfg:   cfg,
		Store: store,
		JWT:   auth.NewManager(cfg.JWTSecret, cfg.JWTTTL()),
		Prom:  prom,
	}

	// Redis is optional: without it rate limits are counted per process.
	var rdb *redisclient.Client
	if cfg.RedisAddr != "" {
		rdb, err = redisclient.Connect(ctx, redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Error("redis connect failed", "err", err, "addr", cfg.RedisAddr)
			store.Close()
			os.Exit(1)
		}

		deps.RateStore = ratelimit.NewRedis(rdb.Raw(), "vita:ratelimit:")
		deps.Ready = map[string]handlers.Pinger{"redis": rdb}
		log.Info("rate limiting backed by redis", "addr", cfg.RedisAddr)
	}

	router := httpx.NewRouter(deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "backend", store.Backend)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		// the server no longer uses them once Shutdown returns
		store.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

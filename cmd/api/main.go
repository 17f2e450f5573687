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

	"github.com/bryanwahyu/health-companion/internal/application"
	appai "github.com/bryanwahyu/health-companion/internal/application/ai"
	"github.com/bryanwahyu/health-companion/internal/application/sessions"
	"github.com/bryanwahyu/health-companion/internal/config"
	domai "github.com/bryanwahyu/health-companion/internal/domain/ai"
	"github.com/bryanwahyu/health-companion/internal/infra/ai/gemini"
	"github.com/bryanwahyu/health-companion/internal/infra/ai/openai"
	"github.com/bryanwahyu/health-companion/internal/infra/httpserver"
	"github.com/bryanwahyu/health-companion/internal/infra/logging"
	"github.com/bryanwahyu/health-companion/internal/infra/sample"
	"github.com/bryanwahyu/health-companion/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	ctx := context.Background()

	// init provider
	var client domai.Client
	switch cfg.AI.Provider {
	case config.ProviderOpenAI:
		client = openai.NewClient(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL, cfg.AI.MaxTokens)
	default:
		client, err = gemini.NewClient(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.BaseURL, cfg.AI.MaxTokens)
		if err != nil {
			log.Fatalf("gemini init error: %v", err)
		}
	}
	logger.Info("model provider ready", "provider", cfg.AI.Provider, "model", cfg.AI.Model)

	// init services
	gateway := appai.NewService(client, cfg.AI.CallTimeout, logger)
	sessionSvc := sessions.NewService(gateway, application.SystemClock{}, logger, cfg.Session.IdleTTL, cfg.Session.SweepInterval)
	defer sessionSvc.Close()

	limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimit.Capacity, cfg.HTTP.RateLimit.RefillPerSecond)
	defer limiter.Stop()

	// init router
	handler := httpserver.NewRouter(httpserver.Options{
		Sessions: sessionSvc,
		Family:   sample.NewFamilyRepo(),
		Clock:    application.SystemClock{},
		Health: map[string]middleware.HealthChecker{
			"provider": &middleware.ProviderHealthChecker{Provider: gateway},
		},
		RateLimiter:    limiter,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

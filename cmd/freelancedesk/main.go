package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"freelancedesk/internal/amqp"
	"freelancedesk/internal/auth"
	"freelancedesk/internal/cache"
	"freelancedesk/internal/cli"
	apphttp "freelancedesk/internal/http"
	"freelancedesk/internal/invoice"
	"freelancedesk/internal/log"
	"freelancedesk/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg)
	defer repo.Close()

	// Without AMQP the API still works; notifications and ledger mirroring
	// are skipped and the worker's sweep catches up on the ledger later.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without background jobs", log.FieldError, err.Error())
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - notifications and ledger sync will not be queued")
	}

	renderer, err := invoice.NewRenderer(cfg.CurrencySymbol)
	if err != nil {
		logger.Error("Failed to load invoice templates", log.FieldError, err.Error())
		os.Exit(1)
	}
	if _, err := renderer.Theme(cfg.DefaultTheme); err != nil {
		logger.Error("Invalid default invoice template", log.FieldTemplate, cfg.DefaultTheme, log.FieldError, err.Error())
		os.Exit(1)
	}

	dashCache := cache.NewLRUCache[services.DashboardSnapshot](500, cfg.DashboardCacheTTL)
	cacheManager := cache.NewManager(logger)
	cacheManager.Register(dashCache)
	cacheManager.StartCleanup(5 * time.Minute)

	svc := services.New(repo, services.Options{
		Publisher:      publisher,
		Logger:         logger,
		Renderer:       renderer,
		DashboardCache: dashCache,
	})

	tokens, err := auth.NewTokens(cfg.AuthSecret, cfg.AuthTokenTTL)
	if err != nil {
		logger.Error("Failed to initialize token verifier", log.FieldError, err.Error())
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(svc, apphttp.Options{
		Addr:           ":" + cfg.Port,
		Tokens:         tokens,
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		DefaultTheme:   cfg.DefaultTheme,
		DashboardCache: dashCache,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err.Error())
		os.Exit(1)
	}
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		if err := svc.Close(ctx); err != nil {
			logger.Warn("Pending side effects abandoned", log.FieldError, err.Error())
		}
		cacheManager.Stop()
	})

	logger.Info("Starting freelancedesk server",
		"port", cfg.Port,
		"ledger_enabled", cfg.LedgerEnabled(),
		"amqp_enabled", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

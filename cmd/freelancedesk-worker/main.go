package main

import (
	"context"
	"os"
	"time"

	"freelancedesk/internal/amqp"
	"freelancedesk/internal/cli"
	"freelancedesk/internal/log"
	"freelancedesk/internal/notify"
	"freelancedesk/internal/services"
	gsheet "freelancedesk/internal/sheets/google"
	"freelancedesk/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting freelancedesk-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker", log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg)
	defer repo.Close()

	mailer, err := notify.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize mailer", log.FieldError, err.Error())
		os.Exit(1)
	}

	// The ledger is optional; without a spreadsheet, ledger messages are
	// acknowledged and dropped.
	var (
		ledger     worker.LedgerSyncer
		ledgerSync *services.LedgerSync
	)
	if cfg.LedgerEnabled() {
		sheetsClient, err := gsheet.New(context.Background(), gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			LedgerSheet:     cfg.GoogleLedgerSheet,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err.Error())
			os.Exit(1)
		}
		ledgerSync = services.NewLedgerSync(repo, sheetsClient, services.DefaultLedgerSyncConfig(), logger)
		ledger = ledgerSync
	} else {
		logger.Info("Payments ledger disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if ledgerSync != nil {
			if err := ledgerSync.Stop(ctx); err != nil {
				logger.Warn("Ledger sweep did not stop cleanly", log.FieldError, err.Error())
			}
		}
	})

	// The sweep picks up payments whose message was lost or whose append
	// failed.
	if ledgerSync != nil {
		if err := ledgerSync.Start(ctx); err != nil {
			logger.Error("Failed to start ledger sweep", log.FieldError, err.Error())
			os.Exit(1)
		}
	}

	w := worker.New(mailer, ledger, logger)
	go func() {
		if err := w.Run(ctx, amqpClient); err != nil {
			logger.Error("Message consumption failed", log.FieldError, err.Error())
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

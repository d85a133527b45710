package main

import (
	"context"
	"errors"
	"os"
	"time"

	"spendly/internal/amqp"
	"spendly/internal/cli"
	"spendly/internal/config"
	"spendly/internal/log"
	"spendly/internal/sheets"
	gsheet "spendly/internal/sheets/google"
	memledger "spendly/internal/sheets/memory"
	"spendly/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.MustLoadConfig(func(c *config.Config) error {
		return errors.Join(c.Validate(), c.ValidateWorker())
	})
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting spendly-worker")

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	var ledger sheets.LedgerWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			RecordsSheet:    cfg.GoogleRecordsSheet,
			AlertsSheet:     cfg.GoogleAlertsSheet,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		ledger = memledger.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID provided, events are kept in memory only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(ledger)
	logger.Info("Consuming events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := amqpClient.Consume(ctx, exportWorker.HandleMessage); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
	}

	cli.Shutdown(logger, 10*time.Second, func(context.Context) error {
		return amqpClient.Close()
	})
}

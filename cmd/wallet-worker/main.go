// Command wallet-worker consumes ledger change events and mirrors newly
// added transactions to a Google Sheets backup. Without Google
// credentials it falls back to an in-memory sink, which is useful for
// local smoke testing the pipeline.
package main

import (
	"os"

	"github.com/marufjanezz06-cmyk/my-wallet/internal/amqp"
	"github.com/marufjanezz06-cmyk/my-wallet/internal/cli"
	"github.com/marufjanezz06-cmyk/my-wallet/internal/sheets"
	"github.com/marufjanezz06-cmyk/my-wallet/internal/sheets/google"
	"github.com/marufjanezz06-cmyk/my-wallet/internal/sheets/memory"
	"github.com/marufjanezz06-cmyk/my-wallet/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the backup worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx := cli.SignalContext(logger)

	var writer sheets.BackupWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := google.NewFromEnv(ctx)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Mirroring transactions to Google Sheets", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		writer = memory.New()
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, mirroring to in-memory sink only")
	}

	w := worker.NewBackupWorker(repo, writer)

	logger.Info("Backup worker starting", "queue", cfg.AMQPQueue)
	err := amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, func(msg *amqp.LedgerEventMessage) error {
		return w.HandleLedgerEvent(ctx, msg)
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("Consumer stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Backup worker stopped")
}

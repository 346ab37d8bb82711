package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marufjanezz06-cmyk/my-wallet/internal/amqp"
	"github.com/marufjanezz06-cmyk/my-wallet/internal/cli"
	walletHTTP "github.com/marufjanezz06-cmyk/my-wallet/internal/http"
	"github.com/marufjanezz06-cmyk/my-wallet/internal/ledger"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx := cli.SignalContext(logger)

	// The change feed is optional: without a broker the wallet still
	// works, mutations just go unmirrored.
	var events ledger.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without change feed", "error", err)
		} else {
			defer client.Close()
			events = client
		}
	}

	store, err := ledger.Open(ctx, repo, events)
	if err != nil {
		logger.Error("Failed to open ledger store", "error", err)
		os.Exit(1)
	}

	srv := walletHTTP.NewServer(":"+cfg.Port, store)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Wallet server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

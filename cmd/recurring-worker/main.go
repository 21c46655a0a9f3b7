package main

import (
	"context"
	"time"

	"mindful/internal/amqp"
	"mindful/internal/cli"
	"mindful/internal/log"
	"mindful/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentRecurring)

	logger.Info("Starting recurring-worker", log.FieldOperation, log.OpStartup)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// Spends created here are announced like any other so the sync-worker exports them.
	var publisher services.SpendPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing in SQLite-only mode", log.FieldError, err)
		} else {
			amqpClient = client
			publisher = client
			logger.Info("AMQP client initialized - spends will sync via sync-worker")
		}
	} else {
		logger.Info("AMQP disabled - spends will not be exported")
	}

	spends := services.NewSpendService(repo, publisher, nil)
	processor := services.NewRecurringProcessor(repo, spends, cfg.ProcessorConcurrency)

	interval := cfg.RecurringProcessorInterval
	logger.Info("Recurring spend processor configured",
		"interval", interval,
		"concurrency", cfg.ProcessorConcurrency,
		"sqlite_db", cfg.SQLiteDBPath)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", log.FieldError, err)
			}
		}
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close SQLite repository", log.FieldError, err)
		}
	})

	run := func(now time.Time) {
		count, err := processor.ProcessDue(ctx, now)
		if err != nil {
			logger.Error("Recurring processing failed", log.FieldError, err, "spends_created", count)
			return
		}
		logger.Info("Recurring processing complete",
			"spends_created", count,
			"next_check", now.Add(interval).Format("15:04:05"))
	}

	logger.Info("Running initial recurring spend processing...")
	run(time.Now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			<-done
			return
		case now := <-ticker.C:
			run(now)
		}
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"mindful/internal/amqp"
	"mindful/internal/cache"
	"mindful/internal/cli"
	"mindful/internal/core"
	apphttp "mindful/internal/http"
	"mindful/internal/log"
	"mindful/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	gin.SetMode(cfg.GinMode)

	logger.Info("Starting mindful API",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"sqlite_db", cfg.SQLiteDBPath)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	// Spend events are optional; without a broker the API still records spends.
	var publisher services.SpendPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, spend events disabled", log.FieldError, err)
		} else {
			amqpClient = client
			publisher = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - spend events will not be published")
	}

	summaries := cache.NewLRUCache[core.PeriodSummary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	caches := cache.NewManager()
	caches.Register(summaries)
	caches.StartCleanup(cfg.SummaryCacheTTL)

	periods := services.NewPeriodService(repo, summaries)
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Periods:      periods,
		Spends:       services.NewSpendService(repo, publisher, periods),
		Recurring:    services.NewRecurringService(repo),
		Health:       repo,
		SummaryCache: summaries,
		Logger:       logger,
	}, apphttp.Options{RateLimitPerMinute: cfg.RateLimitPerMinute})

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP server shutdown failed", log.FieldError, err)
		}
		caches.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", log.FieldError, err)
			}
		}
		if err := repo.Close(); err != nil {
			logger.Warn("Failed to close SQLite repository", log.FieldError, err)
		}
	})

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", log.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}

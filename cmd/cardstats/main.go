package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"cardstats/internal/amqp"
	"cardstats/internal/backend"
	"cardstats/internal/chart"
	"cardstats/internal/cli"
	"cardstats/internal/dashboard"
	apphttp "cardstats/internal/http"
	applog "cardstats/internal/log"
	"cardstats/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(bootstrap.Logger)
	logger := cli.SetupLogger(cfg.LogLevel)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create data backend", applog.FieldError, err.Error(), applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer res.Close()

	policy, err := dashboard.ParsePolicy(cfg.MonthFailurePolicy)
	if err != nil {
		logger.Error("Invalid month failure policy", applog.FieldError, err.Error())
		os.Exit(1)
	}

	ctrl := dashboard.New(res.Source, chart.NewRenderer(0, 0), chart.NewState(), dashboard.Config{
		Policy: policy,
		Logger: logger.WithComponent(applog.ComponentDashboard),
	})

	srv := apphttp.NewServer(":"+cfg.Port, ctrl, res.Source, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" && res.Cache != nil {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
			os.Exit(1)
		}
	} else if cfg.AMQPURL != "" {
		logger.Info("AMQP configured but cache disabled, refresh events ignored")
	}

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err.Error())
			}
		}
	})

	if amqpClient != nil {
		refresh := worker.NewRefreshWorker(res.Cache)
		go func() {
			err := amqpClient.ConsumeRefreshWithReconnect(ctx, refresh.HandleRefreshMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Refresh consumer stopped", applog.FieldError, err.Error())
			}
		}()
		logger.Info("Listening for month refresh events", "queue", cfg.AMQPQueue)
	}

	logger.Info("Starting cardstats server",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"policy", string(policy),
		"cache", cfg.CacheEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

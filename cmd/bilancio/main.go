package main

import (
	"context"
	"os"
	"time"

	"bilancio/internal/cli"
	"bilancio/internal/config"
	apphttp "bilancio/internal/http"
	applog "bilancio/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Invalid configuration", applog.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp, os.Stdout)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	ledger, err := cli.BuildLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to release ledger resources", applog.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:         ":" + cfg.Port,
		RateLimitRPM: cfg.RateLimitRPM,
	}, ledger, logger)

	logger.Info("Starting bilancio server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"xlsx_export", cfg.XLSXExportEnabled,
		"events", cfg.AMQPURL != "",
		applog.FieldOperation, applog.OpStartup)

	return cli.Serve(ctx, logger, srv, 30*time.Second)
}

// Package cli holds the start-up steps shared by the bilancio server and
// the bilancioctl command: environment, config, logging and ledger wiring.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/backend"
	"bilancio/internal/config"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/sheets/excel"
)

// SetupLogger builds the process logger for level, writing to out, and
// makes it the slog default.
func SetupLogger(level, component string, out io.Writer) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(level)
	cfg.Component = component
	if out != nil {
		cfg.Output = out
	}
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig reads the environment and reports every problem at
// once.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BuildLedger opens the configured store and wires the optional event
// publisher and spreadsheet export. Close the returned service to release
// them. An unreachable broker is logged and skipped.
func BuildLedger(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*services.LedgerService, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	opts := []services.Option{
		services.WithClock(func() time.Time { return time.Now().In(loc) }),
		services.WithTrendDays(cfg.TrendDays),
		services.WithSpreadsheets(excel.Provider{Enabled: cfg.XLSXExportEnabled}),
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			logger.WithComponent(applog.ComponentAMQP).Warn("Ledger events disabled, broker unreachable",
				applog.FieldError, err, "exchange", cfg.AMQPExchange)
		} else {
			logger.WithComponent(applog.ComponentAMQP).Info("Publishing ledger events",
				"exchange", cfg.AMQPExchange, "routing_key", cfg.AMQPRoutingKey)
			opts = append(opts, services.WithPublisher(client), services.WithCloser(client.Close))
		}
	}
	if res.Cleanup != nil {
		opts = append(opts, services.WithCloser(res.Cleanup))
	}

	return services.NewLedgerService(res.Store, opts...), nil
}

// Server is what Serve needs from an HTTP server.
type Server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// Serve runs srv until ctx is cancelled or SIGINT/SIGTERM arrives, then
// shuts it down within timeout.
func Serve(ctx context.Context, logger *applog.Logger, srv Server, timeout time.Duration) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

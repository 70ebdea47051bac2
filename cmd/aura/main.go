package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"time"

	_ "go.uber.org/automaxprocs"

	"aura/internal/cli"
	apphttp "aura/internal/http"
	"aura/internal/idempotency"
	"aura/internal/log"
)

const idempotencyRetention = 24 * time.Hour

func main() {
	configPath := flag.String("config", os.Getenv("AURA_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(*configPath)
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}
	logger, err := cli.SetupLogger(cfg, log.ComponentApp)
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Invalid log configuration", err)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	res, err := cli.OpenBackend(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		cli.Fatal(logger, "Failed to open backend", err)
	}

	svc, err := cli.NewLedger(cfg, res, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to build ledger", err)
	}

	idem, err := idempotency.Open(cfg.IdempotencyDBPath)
	if err != nil {
		cli.Fatal(logger, "Failed to open idempotency store", err)
	}

	checks := make(map[string]apphttp.Checker, len(res.Checks))
	for name, c := range res.Checks {
		checks[name] = c
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               net.JoinHostPort("", cfg.Port),
		Ledger:             svc,
		Checks:             checks,
		Idempotency:        idem,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to build HTTP server", err)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	go purgeIdempotencyKeys(ctx, idem, logger)

	logger.Info("Starting aura server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", svc.Location().String(),
		"notifications", res.Notifier != nil)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = idem.Close()
		_ = res.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	if err := idem.Close(); err != nil {
		logger.Error("Failed to close idempotency store", log.FieldError, err)
	}
	if err := res.Close(); err != nil {
		logger.Error("Failed to close backend", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}

// purgeIdempotencyKeys drops stored responses older than the retention
// window once an hour.
func purgeIdempotencyKeys(ctx context.Context, store *idempotency.Store, logger *log.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := store.Purge(now.Add(-idempotencyRetention))
			if err != nil {
				logger.Warn("Idempotency purge failed", log.FieldError, err)
				continue
			}
			if n > 0 {
				logger.Debug("Purged idempotency keys", log.FieldCount, n)
			}
		}
	}
}

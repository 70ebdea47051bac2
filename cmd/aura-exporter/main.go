package main

import (
	"context"
	"flag"
	"os"
	"time"

	_ "go.uber.org/automaxprocs"

	"aura/internal/amqp"
	"aura/internal/cli"
	"aura/internal/log"
	"aura/internal/sheets"
	gsheet "aura/internal/sheets/google"
	sheetmem "aura/internal/sheets/memory"
	"aura/internal/worker"
)

func main() {
	configPath := flag.String("config", os.Getenv("AURA_CONFIG"), "path to a YAML config file")
	dryRun := flag.Bool("dry-run", false, "log rows instead of writing them to Google Sheets")
	flag.Parse()

	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(*configPath)
	if err == nil && !*dryRun {
		err = cfg.ValidateExport()
	}
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}
	logger, err := cli.SetupLogger(cfg, log.ComponentWorker)
	if err != nil {
		cli.Fatal(log.New(log.DefaultConfig()), "Invalid log configuration", err)
	}
	logger.Info("Starting aura-exporter")

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	// The exporter only reads; it never publishes changes of its own.
	storeCfg := *cfg
	storeCfg.AMQPURL = ""
	res, err := cli.OpenBackend(startCtx, &storeCfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to open backend", err)
	}
	defer res.Close()

	svc, err := cli.NewLedger(cfg, res, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to build ledger", err)
	}

	var sheet sheets.EventAppender
	if *dryRun {
		sheet = sheetmem.New()
		logger.Info("Dry run: rows stay in memory")
	} else {
		gs, err := gsheet.New(startCtx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
			Location:        svc.Location(),
			Logger:          logger,
		})
		if err != nil {
			cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
		}
		if err := gs.EnsureHeader(startCtx); err != nil {
			logger.Warn("Could not verify sheet header", log.FieldError, err)
		}
		sheet = gs
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer client.Close()

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	exporter := worker.NewExportWorker(svc, sheet, logger)
	logger.Info("Consuming ledger changes",
		"queue", cfg.AMQPQueue,
		"dry_run", *dryRun,
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	if err := exporter.Run(ctx, client, cfg.ExportPrefetch); err != nil {
		logger.Error("Export worker stopped", log.FieldError, err)
		return
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Exporter shutdown complete")
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"aura/internal/backend"
	"aura/internal/cli"
	"aura/internal/config"
	"aura/internal/ledger"
	"aura/internal/log"
)

const programName = "auractl"

var errNoConfig = errors.New("no config found in context")

type globalFlags struct {
	debug      bool
	configFile string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Administer the aura ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().
		BoolVarP(&flags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&flags.configFile, "config", os.Getenv("AURA_CONFIG"), "path to config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadAndValidateConfig(flags.configFile)
		if err != nil {
			return err
		}
		if flags.debug {
			cfg.LogLevel = "debug"
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(membersCommand())
	rootCmd.AddCommand(eventsCommand())
	rootCmd.AddCommand(overviewCommand())
	rootCmd.AddCommand(timelineCommand())
	return rootCmd
}

// commandLogger logs to stderr so stdout carries only command output.
func commandLogger(cmd *cobra.Command, cfg *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})
	log.SetDefault(logger)
	return logger, nil
}

// withLedger opens the configured backend, runs fn and closes the backend.
func withLedger(cmd *cobra.Command, fn func(ctx context.Context, svc *ledger.Service) error) error {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		return errNoConfig
	}
	logger, err := commandLogger(cmd, cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend(res, logger)

	svc, err := cli.NewLedger(cfg, res, logger)
	if err != nil {
		return err
	}
	return fn(ctx, svc)
}

func closeBackend(res *backend.BackendResult, logger *log.Logger) {
	if err := res.Close(); err != nil {
		logger.Warn("Failed to close backend", log.FieldError, err)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	cli.LoadEnvFile()
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

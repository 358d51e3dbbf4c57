package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cgmdose/internal/app"
	"cgmdose/internal/config"
	"cgmdose/internal/infrastructure"
	"cgmdose/pkg/contracts"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

// Run executes the command line and returns the process exit code.
func Run(args []string) ExitCode {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          config.AppName,
		Short:        "Normalize CGM exports, persist them and derive insulin dosing ratios.",
		Version:      contracts.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Help(); err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "set debug logging level")
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file (overrides "+config.EnvPrefix+"_CONFIG_FILE)")

	rootCmd.AddCommand(
		newTransformCmd(),
		newIngestCmd(),
		newAnalyzeCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// runWithApplication loads configuration, builds the application and runs
// fn with a cancellable, run-scoped context. The application is stopped
// after fn returns, pushing the run's metrics.
func runWithApplication(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	application, err := app.NewApplication(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = infrastructure.EnsureTraceID(ctx)

	application.Logger.InfoContext(ctx, "Command started",
		slog.String("command", cmd.Name()),
		slog.String("version", contracts.Version))

	runErr := fn(ctx, application)
	if runErr != nil {
		application.Logger.ErrorContext(ctx, "Command failed",
			slog.String("command", cmd.Name()),
			slog.String("error", runErr.Error()))
	}

	// The run context may be cancelled already; stopping uses a fresh one.
	if err := application.Stop(context.WithoutCancel(ctx)); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		if err := os.Setenv(config.EnvPrefix+"_CONFIG_FILE", path); err != nil {
			return nil, fmt.Errorf("failed to set config file: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), contracts.GetFullVersionString())
			return err
		},
	}
}

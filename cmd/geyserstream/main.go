package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	clientcmd "github.com/rzbill/geyserstream/internal/cmd/client"
	serverrun "github.com/rzbill/geyserstream/internal/cmd/server"
	cfgpkg "github.com/rzbill/geyserstream/internal/config"
	logpkg "github.com/rzbill/geyserstream/pkg/log"
)

func main() {
	// Respect GEYSER_LOG_LEVEL for CLI output
	parsed, err := logpkg.ParseLevel(os.Getenv("GEYSER_LOG_LEVEL"))
	if err != nil {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(logpkg.WithLevel(parsed))
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:          "geyserstream",
		Short:        "Solana geyser relay",
		Long:         "geyserstream relays validator geyser notifications to gRPC subscribers. This CLI hosts the relay standalone and inspects a running one.",
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the relay outside a validator",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			bind, _ := cmd.Flags().GetString("bind")
			metricsAddr, _ := cmd.Flags().GetString("metrics")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{
				ConfigPath:     configPath,
				BindAddress:    bind,
				MetricsAddress: metricsAddr,
				LogLevel:       logLevel,
				LogFormat:      logFormat,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	serveCmd.Flags().String("config", cfgpkg.DefaultPath(), "Config file (JSON or YAML; env GEYSER_CONFIG)")
	serveCmd.Flags().String("bind", "", "gRPC listen address (overrides bind_address)")
	serveCmd.Flags().String("metrics", "", "Metrics and health listen address (overrides metrics_address)")
	serveCmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	serveCmd.Flags().String("log-format", "", "Log format: text|json (default text)")
	rootCmd.AddCommand(serveCmd)

	clientcmd.AddCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", logpkg.Err(err))
		os.Exit(1)
	}
}

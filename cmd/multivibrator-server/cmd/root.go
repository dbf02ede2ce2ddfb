package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/multivibrator/internal/config"
	"github.com/oshokin/multivibrator/internal/service/server"
	"github.com/oshokin/multivibrator/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides log_level from the configuration.
	logLevel string

	// rootCmd represents the base command for running the gRPC server.
	rootCmd = &cobra.Command{
		Use:   "multivibrator-server [listen-address]",
		Short: "Run the multivibrator and serve its gRPC control API.",
		Long: `Starts the multivibrator timing engine and the gRPC server that controls it.

The server listens on the specified address or uses settings from configuration file.
Only the port from ServerAddress config is used for listening (e.g., :50051).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:8080).
The output is published to the in-process connector and mirrored to the MQTT
and GPIO outputs when they are configured. On SIGINT or SIGTERM the
multivibrator is killed and the server stops gracefully.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				LogLevel:      logLevel,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the multivibrator-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides log_level")
}

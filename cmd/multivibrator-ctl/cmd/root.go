package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/multivibrator/internal/config"
	"github.com/oshokin/multivibrator/internal/service/client"
	"github.com/oshokin/multivibrator/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// serverAddress overrides server_addr from the configuration.
	serverAddress string

	// rootCmd represents the base command; it only groups subcommands.
	rootCmd = &cobra.Command{
		Use:   "multivibrator-ctl",
		Short: "Control a running multivibrator-server.",
		Long: `Sends commands to a multivibrator-server over gRPC.

The server address is read from the configuration file unless --server is given.
Every command is logged on the server together with the calling user and host.`,
		SilenceUsage: true,
	}
)

// newCommand builds a subcommand that runs the operation returned by build.
func newCommand(use, short string, args cobra.PositionalArgs, build func(args []string) client.Command) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(c *cobra.Command, args []string) error {
			// Watch runs until interrupted.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &client.Options{
				ConfigPath:    configPath,
				ServerAddress: serverAddress,
				Out:           c.OutOrStdout(),
			}

			return client.Run(ctx, options, build(args))
		},
	}
}

// Execute runs the multivibrator-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "server address, overrides server_addr")

	rootCmd.AddCommand(
		newCommand("trigger", "Arm the multivibrator.", cobra.NoArgs,
			func([]string) client.Command { return client.Trigger() }),
		newCommand("mode <monostable|astable|bistable|1|2|3>", "Switch the mode and disarm.", cobra.ExactArgs(1),
			func(args []string) client.Command { return client.SetMode(args[0]) }),
		newCommand("state", "Print the current output.", cobra.NoArgs,
			func([]string) client.Command { return client.State() }),
		newCommand("set-state <0|1>", "Force the output level.", cobra.ExactArgs(1),
			func(args []string) client.Command { return client.SetState(args[0]) }),
		newCommand("output <connector|mqtt|gpio>", "Route the output to a configured sink.", cobra.ExactArgs(1),
			func(args []string) client.Command { return client.SetOutput(args[0]) }),
		newCommand("stop", "Disarm the multivibrator.", cobra.NoArgs,
			func([]string) client.Command { return client.Stop() }),
		newCommand("kill", "Terminate the scheduler permanently.", cobra.NoArgs,
			func([]string) client.Command { return client.Kill() }),
		newCommand("status", "Print a status snapshot.", cobra.NoArgs,
			func([]string) client.Command { return client.Status() }),
		newCommand("watch", "Print every output level until interrupted.", cobra.NoArgs,
			func([]string) client.Command { return client.Watch() }),
	)
}

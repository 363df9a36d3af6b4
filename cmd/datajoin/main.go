package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/caiorcferreira/datajoin/internal/config"
	"github.com/caiorcferreira/datajoin/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options carries the loaded configuration from the root command to its
// subcommands.
type options struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func rootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "datajoin",
		Short: "End-of-dataset detection for workers reading uneven shards",
		Long: `datajoin reads a dataset file through a shuffle, repeat, shard and batch
chain and attaches end detection, so every step knows whether it consumed the
last element. simulate runs several workers in lockstep to show how ranks with
shorter shards keep joining collective steps until everyone is done.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = opts.logLevel
			}
			opts.cfg = cfg

			logging.Init(logging.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")

	root.AddCommand(scanCmd(opts))
	root.AddCommand(simulateCmd(opts))
	return root
}

// Command n2f runs near-to-far-field simulations and inspects their output.
//
// Usage:
//
//	n2f run --config run.yaml
//	n2f farfield --config run.yaml --directions 72
//	n2f inspect out/far.db
//	n2f init run.yaml
//	n2f info
//
// Without --config the built-in TM line source configuration is used.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-n2f/internal/config"
	"github.com/cwbudde/algo-n2f/internal/logging"
)

// app holds the state shared by the subcommands of one invocation.
type app struct {
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "n2f",
		Short: "Near-to-far-field transformation of FDTD simulations",
		Long: `n2f steps a 2D FDTD simulation, records the tangential fields on closed
surfaces around the sources and projects them to arbitrary far-field points.

Runs are described by a YAML configuration; "n2f init" writes the default one.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "run configuration (YAML)")

	root.AddCommand(
		newRunCmd(a),
		newFarfieldCmd(a),
		newInspectCmd(a),
		newInitCmd(a),
		newInfoCmd(),
	)

	return root
}

// setup loads the configuration and builds the logger it describes.
func (a *app) setup() error {
	cfg := config.Default()

	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}

		cfg = loaded
	}

	logger, err := logging.New(cfg.Logging, a.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

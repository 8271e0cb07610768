package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Zachdehooge/nyc-collisions/internal/config"
)

var (
	configFile string
	verbose    bool

	cfg *config.Config
	log zerolog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "collisions",
		Short: "Map and analyze NYC motor vehicle collisions",
		Long: `Collisions loads the NYC Motor Vehicle Collisions crash export and renders
an interactive heatmap with clustered, severity-colored markers. It also
patches and publishes the companion analysis notebooks.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.InfoLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
				Level(level).With().Timestamp().Logger()

			var err error
			cfg, err = config.Load(configFile)
			if err != nil {
				return err
			}
			log.Debug().Str("input", cfg.Input).Str("output", cfg.Output).Msg("Loaded configuration")
			return nil
		},
	}

	// Flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $"+config.EnvPath+" or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	addMapCmd(rootCmd)
	addSummaryCmd(rootCmd)
	addNotebookCmd(rootCmd)
	addConvertCmd(rootCmd)

	return rootCmd
}

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cli/browser"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Zachdehooge/nyc-collisions/internal/generator"
	"github.com/Zachdehooge/nyc-collisions/internal/loader"
	"github.com/Zachdehooge/nyc-collisions/internal/spatial"
)

// settle is how long the input must stay quiet before a watched change
// triggers a rebuild. Large exports are written in many chunks.
const settle = 500 * time.Millisecond

var (
	inputFile   string
	outputFile  string
	sampleSize  int
	chunkSize   int
	openBrowser bool
	watchMode   bool
)

// addMapCmd adds the 'map' subcommand that renders the collision map HTML
func addMapCmd(rootCmd *cobra.Command) {
	mapCmd := &cobra.Command{
		Use:   "map",
		Short: "Render the collision heatmap and marker clusters to HTML",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyMapFlags(cmd); err != nil {
				return err
			}

			if err := generateMapHTML(cmd); err != nil {
				return fmt.Errorf("failed to generate map: %w", err)
			}

			if openBrowser {
				if err := browser.OpenFile(cfg.Output); err != nil {
					log.Warn().Err(err).Str("output", cfg.Output).Msg("Could not open browser")
				}
			}

			if watchMode {
				return runWatchMode(cmd.Context(), cmd)
			}
			return nil
		},
	}

	// Flags
	mapCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Crash CSV path or URL (default from config)")
	mapCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output HTML file path (default from config)")
	mapCmd.Flags().IntVar(&sampleSize, "sample-size", spatial.DefaultSampleSize, "Maximum number of individual markers")
	mapCmd.Flags().IntVar(&chunkSize, "chunk-size", spatial.DefaultChunkSize, "Records per heatmap chunk")
	mapCmd.Flags().BoolVar(&openBrowser, "open", false, "Open the generated map in a browser")
	mapCmd.Flags().BoolVar(&watchMode, "watch", false, "Regenerate the map whenever the input file changes")

	rootCmd.AddCommand(mapCmd)
}

// applyMapFlags lets explicitly set flags override the config file.
func applyMapFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input = inputFile
	}
	if flags.Changed("output") {
		cfg.Output = outputFile
	}
	if flags.Changed("sample-size") {
		if sampleSize <= 0 {
			return fmt.Errorf("--sample-size must be positive, got %d", sampleSize)
		}
		cfg.Map.SampleSize = sampleSize
	}
	if flags.Changed("chunk-size") {
		if chunkSize <= 0 {
			return fmt.Errorf("--chunk-size must be positive, got %d", chunkSize)
		}
		cfg.Map.ChunkSize = chunkSize
	}
	return nil
}

// generateMapHTML loads the dataset and writes the map
func generateMapHTML(cmd *cobra.Command) error {
	log.Debug().Str("input", cfg.Input).Msg("Loading collision records")

	records, stats, err := loader.Load(cmd.Context(), cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to load collisions: %w", err)
	}
	log.Info().Int("rows", stats.Rows).Int("kept", stats.Kept).Int("dropped", stats.Dropped).Msg("Loaded collision records")

	opts := cfg.RenderOptions()
	opts.Logger = &log
	m := spatial.Render(records, opts)

	log.Debug().Str("output", cfg.Output).Msg("Generating HTML")
	if err := generator.GenerateMapHTML(m, cfg.Output); err != nil {
		return fmt.Errorf("failed to generate HTML: %w", err)
	}

	cmd.Println(fmt.Sprintf("Collision map saved to %s (%d heatmap points, %d markers)",
		cfg.Output, m.Stats.Points, m.Stats.Markers))
	return nil
}

// runWatchMode regenerates the map each time the input file is rewritten
func runWatchMode(ctx context.Context, cmd *cobra.Command) error {
	if strings.Contains(cfg.Input, "://") {
		return fmt.Errorf("watch mode needs a local input file, got %s", cfg.Input)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory; editors and downloaders often replace the file.
	input := filepath.Clean(cfg.Input)
	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", input, err)
	}

	cmd.Println(fmt.Sprintf("Watch mode activated. Regenerating when %s changes. Press Ctrl+C to stop.", input))

	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != input || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			log.Debug().Str("event", event.Op.String()).Msg("Input changed")
			timer.Reset(settle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Watcher error")
		case <-timer.C:
			if err := generateMapHTML(cmd); err != nil {
				cmd.PrintErrln(fmt.Errorf("update failed: %w", err))
			}
		}
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zachdehooge/nyc-collisions/internal/converter"
)

var (
	notebookDir string
	outputDir   string
	jobs        int
)

// addConvertCmd adds the 'convert' subcommand that publishes notebooks as HTML
func addConvertCmd(rootCmd *cobra.Command) {
	convertCmd := &cobra.Command{
		Use:   "convert [notebook...]",
		Short: "Convert notebooks to HTML with nbconvert and write an index page",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("dir") {
				cfg.Notebooks.Dir = notebookDir
			}
			if flags.Changed("output-dir") {
				cfg.Convert.OutputDir = outputDir
			}
			if flags.Changed("jobs") {
				cfg.Convert.Jobs = jobs
			}

			notebooks := args
			if len(notebooks) == 0 {
				var err error
				notebooks, err = converter.Discover(cfg.Notebooks.Dir)
				if err != nil {
					return fmt.Errorf("failed to find notebooks: %w", err)
				}
			}
			if len(notebooks) == 0 {
				cmd.Println(fmt.Sprintf("No notebooks found in %s.", cfg.Notebooks.Dir))
				return nil
			}

			c := &converter.Converter{
				Jupyter:   cfg.Convert.Jupyter,
				OutputDir: cfg.Convert.OutputDir,
				Jobs:      cfg.Convert.Jobs,
				Logger:    log,
			}
			results := c.Convert(cmd.Context(), notebooks)

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					cmd.PrintErrln(fmt.Sprintf("Error converting %s: %v", r.Notebook, r.Err))
					continue
				}
				cmd.Println(fmt.Sprintf("Converted %s to %s", r.Notebook, r.HTML))
			}

			index, err := c.WriteIndex(results)
			if err != nil {
				return err
			}
			cmd.Println(fmt.Sprintf("Index saved to %s", index))

			if failed > 0 {
				return fmt.Errorf("%d of %d notebook(s) failed to convert", failed, len(results))
			}
			return nil
		},
	}

	// Flags
	convertCmd.Flags().StringVar(&notebookDir, "dir", "notebooks", "Directory searched for .ipynb files")
	convertCmd.Flags().StringVar(&outputDir, "output-dir", ".", "Directory for the HTML pages")
	convertCmd.Flags().IntVar(&jobs, "jobs", 1, "Notebooks converted concurrently")

	rootCmd.AddCommand(convertCmd)
}

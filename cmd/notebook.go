package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zachdehooge/nyc-collisions/internal/patch"
)

var csvPath string

// addNotebookCmd adds the 'notebook' command group that patches analysis notebooks in place
func addNotebookCmd(rootCmd *cobra.Command) {
	notebookCmd := &cobra.Command{
		Use:   "notebook",
		Short: "Patch the analysis notebooks in place",
	}
	notebookCmd.PersistentFlags().StringVar(&csvPath, "csv", "", "CSV path as seen from the notebooks (default from config)")

	notebookCmd.AddCommand(
		newPatchCmd("fix-style", "Replace the removed 'seaborn' plot style with 'ggplot'",
			func() patch.Patch { return patch.FixPlotStyle() }),
		newPatchCmd("load-data", "Replace the sample-data cell with a load of the crash CSV",
			func() patch.Patch { return patch.LoadRealDataset(notebookCSV()) }),
		newPatchCmd("optimize-spatial", "Use the memory-optimized load and chunked spatial visualization",
			func() patch.Patch { return patch.OptimizeSpatial(notebookCSV()) }),
	)

	rootCmd.AddCommand(notebookCmd)
}

func newPatchCmd(use, short string, build func() patch.Patch) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [notebook...]",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				paths = cfg.Notebooks.Files
			}

			p := build()
			failed := 0
			for _, res := range patch.Apply(paths, p, log) {
				if res.Err != nil {
					failed++
					cmd.PrintErrln(fmt.Sprintf("Error processing %s: %v", res.Path, res.Err))
					continue
				}
				cmd.Println(fmt.Sprintf("%s: %d cell(s) updated by %s", res.Path, res.Changed, p.Name))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d notebook(s) failed", failed, len(paths))
			}
			return nil
		},
	}
}

func notebookCSV() string {
	if csvPath != "" {
		return csvPath
	}
	return cfg.Notebooks.CSV
}

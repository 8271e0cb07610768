package patch

import (
	"embed"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Zachdehooge/nyc-collisions/internal/notebook"
)

//go:embed cells/*.py
var cells embed.FS

// DefaultCSVPath is where the analysis notebooks expect the crash export,
// relative to the notebooks directory.
const DefaultCSVPath = "../Motor_Vehicle_Collisions_-_Crashes_20250512.csv"

const (
	oldPlotStyle = "plt.style.use('seaborn')"
	newPlotStyle = "plt.style.use('ggplot')  # Using a valid style"
)

// Patch is a named in-place notebook rewrite. Apply returns the number of
// cells it changed.
type Patch struct {
	Name  string
	Apply func(nb *notebook.Notebook) int
}

// FixPlotStyle swaps the removed matplotlib "seaborn" style for "ggplot".
func FixPlotStyle() Patch {
	return Patch{
		Name: "fix-style",
		Apply: func(nb *notebook.Notebook) int {
			changed := 0
			for _, c := range nb.CodeCells() {
				if c.ReplaceAll(oldPlotStyle, newPlotStyle) {
					changed++
				}
			}
			return changed
		},
	}
}

// LoadRealDataset replaces the synthetic sample-data cell with a read of the
// crash CSV at csvPath.
func LoadRealDataset(csvPath string) Patch {
	source := cellSource("load_dataset.py", csvPath)
	return Patch{
		Name: "load-data",
		Apply: func(nb *notebook.Notebook) int {
			changed := 0
			for _, c := range nb.CodeCells() {
				text := c.Text()
				if strings.Contains(text, "Create a sample dataset") || strings.Contains(text, "Create a sample dataframe") {
					c.SetSource(source)
					c.ClearOutputs()
					changed++
				}
			}
			return changed
		},
	}
}

// OptimizeSpatial rewrites the CSV load to read only the mapped columns with
// compact dtypes, and replaces the spatial visualization function with the
// chunked heatmap and sampled marker-cluster version.
func OptimizeSpatial(csvPath string) Patch {
	load := cellSource("optimized_load.py", csvPath)
	viz := cellSource("spatial_visualization.py", csvPath)
	return Patch{
		Name: "optimize-spatial",
		Apply: func(nb *notebook.Notebook) int {
			changed := 0
			for _, c := range nb.CodeCells() {
				text := c.Text()
				switch {
				case strings.Contains(text, "df = pd.read_csv"):
					c.SetSource(load)
				case strings.Contains(text, "def create_spatial_visualizations"),
					strings.Contains(text, "def analyze_spatial_patterns"):
					c.SetSource(viz)
				default:
					continue
				}
				c.ClearOutputs()
				changed++
			}
			return changed
		},
	}
}

// Result is the outcome of patching one notebook.
type Result struct {
	Path    string
	Changed int
	Err     error
}

// Apply runs p over each notebook. A notebook that fails to load or save is
// logged and skipped; the rest are still processed. Unchanged notebooks are
// not rewritten.
func Apply(paths []string, p Patch, log zerolog.Logger) []Result {
	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		res := Result{Path: path}

		nb, err := notebook.Load(path)
		if err != nil {
			res.Err = err
			log.Error().Err(err).Str("notebook", path).Str("patch", p.Name).Msg("Failed to load notebook")
			results = append(results, res)
			continue
		}

		res.Changed = p.Apply(nb)
		if res.Changed > 0 {
			if err := nb.Save(path); err != nil {
				res.Err = err
				log.Error().Err(err).Str("notebook", path).Str("patch", p.Name).Msg("Failed to save notebook")
				results = append(results, res)
				continue
			}
		}

		log.Info().Str("notebook", path).Str("patch", p.Name).Int("cells", res.Changed).Msg("Patched notebook")
		results = append(results, res)
	}
	return results
}

func cellSource(name, csvPath string) []string {
	b, err := cells.ReadFile("cells/" + name)
	if err != nil {
		panic("patch: missing embedded cell " + name)
	}
	text := strings.ReplaceAll(string(b), "$CSV_PATH", pyQuote(csvPath))
	return notebook.SplitLines(text)
}

// pyQuote escapes s for a single-quoted Python string literal.
func pyQuote(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

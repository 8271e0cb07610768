package converter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Zachdehooge/nyc-collisions/internal/generator"
)

// IndexFile is written into the output directory after conversion.
const IndexFile = "index.html"

// Result is the outcome of converting one notebook.
type Result struct {
	Notebook string
	HTML     string // path of the produced page, empty on failure
	Duration time.Duration
	Err      error
}

// Converter turns notebooks into static HTML pages with nbconvert.
type Converter struct {
	Jupyter   string // executable, "jupyter" when empty
	OutputDir string // "." when empty
	Jobs      int    // concurrent conversions, at least 1
	Logger    zerolog.Logger

	// run executes one command; tests replace it.
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Discover returns the .ipynb files directly under dir in name order.
func Discover(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.ipynb"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Convert runs nbconvert for each notebook. A failed notebook is recorded in
// its Result and does not stop the others. Results keep the input order.
func (c *Converter) Convert(ctx context.Context, notebooks []string) []Result {
	jupyter := c.Jupyter
	if jupyter == "" {
		jupyter = "jupyter"
	}
	outDir := c.outputDir()
	jobs := c.Jobs
	if jobs < 1 {
		jobs = 1
	}
	run := c.run
	if run == nil {
		run = runCommand
	}

	results := make([]Result, len(notebooks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, nb := range notebooks {
		g.Go(func() error {
			start := time.Now()
			res := Result{Notebook: nb}

			c.Logger.Info().Str("notebook", nb).Msg("Converting notebook")
			out, err := run(ctx, jupyter, "nbconvert", "--to", "html", "--output-dir", outDir, nb)
			res.Duration = time.Since(start)
			if err != nil {
				res.Err = fmt.Errorf("failed to convert %s: %w%s", nb, err, detail(out))
				c.Logger.Error().Err(res.Err).Str("notebook", nb).Msg("Conversion failed")
			} else {
				res.HTML = filepath.Join(outDir, htmlName(nb))
				c.Logger.Info().Str("notebook", nb).Str("html", res.HTML).Dur("took", res.Duration).Msg("Converted notebook")
			}
			results[i] = res
			// failures are reported per notebook, never through the group
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// WriteIndex writes an index page linking each converted notebook and listing
// the failed ones.
func (c *Converter) WriteIndex(results []Result) (string, error) {
	outDir := c.outputDir()
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	pages := make([]generator.Page, 0, len(results))
	for _, r := range results {
		p := generator.Page{
			Title:    strings.TrimSuffix(filepath.Base(r.Notebook), filepath.Ext(r.Notebook)),
			Notebook: r.Notebook,
		}
		if r.Err != nil {
			p.Error = r.Err.Error()
		} else {
			p.Href = filepath.ToSlash(htmlName(r.Notebook))
		}
		pages = append(pages, p)
	}

	path := filepath.Join(outDir, IndexFile)
	if err := generator.GenerateIndexHTML(pages, path); err != nil {
		return "", fmt.Errorf("failed to write index: %w", err)
	}
	return path, nil
}

func (c *Converter) outputDir() string {
	if c.OutputDir == "" {
		return "."
	}
	return c.OutputDir
}

func htmlName(notebook string) string {
	base := filepath.Base(notebook)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".html"
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// detail returns the last line of command output, for error messages.
func detail(out []byte) string {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return ""
	}
	if i := bytes.LastIndexByte(out, '\n'); i >= 0 {
		out = out[i+1:]
	}
	return ": " + string(out)
}

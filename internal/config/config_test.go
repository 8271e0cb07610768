package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Zachdehooge/nyc-collisions/internal/spatial"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "collisions.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("CRASH_DATA", "/data/crashes.csv")
	path := writeConfig(t, `
input: ${CRASH_DATA}
map:
  sample_size: 500
  center: [40.65, -73.95]
convert:
  jobs: 4
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Input != "/data/crashes.csv" {
		t.Errorf("expected expanded input path, got %s", cfg.Input)
	}
	if cfg.Map.SampleSize != 500 {
		t.Errorf("expected sample size 500, got %d", cfg.Map.SampleSize)
	}
	if cfg.Map.ChunkSize != spatial.DefaultChunkSize {
		t.Errorf("expected default chunk size, got %d", cfg.Map.ChunkSize)
	}
	if cfg.Convert.Jobs != 4 {
		t.Errorf("expected 4 jobs, got %d", cfg.Convert.Jobs)
	}
	if cfg.Convert.Jupyter != "jupyter" {
		t.Errorf("expected default jupyter, got %s", cfg.Convert.Jupyter)
	}

	opts := cfg.RenderOptions()
	if opts.Center != (spatial.LatLng{Lat: 40.65, Lng: -73.95}) {
		t.Errorf("unexpected center %+v", opts.Center)
	}
	if opts.Seed != spatial.DefaultSeed {
		t.Errorf("expected default seed, got %d", opts.Seed)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvPath, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected defaults without a config file, got %v", err)
	}
	want := Default()
	if cfg.Output != want.Output || cfg.Map.SampleSize != 10000 || cfg.Map.Zoom != 11 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if len(cfg.Notebooks.Files) != 2 {
		t.Errorf("expected 2 default notebooks, got %v", cfg.Notebooks.Files)
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "output: env.html\n")
	t.Setenv(EnvPath, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output != "env.html" {
		t.Errorf("expected output from env config, got %s", cfg.Output)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for an explicit missing file")
	}
	if _, err := Load(writeConfig(t, "map: [1, 2")); err == nil {
		t.Error("expected a parse error")
	}
	if _, err := Load(writeConfig(t, "map:\n  center: [40.7]\n")); err == nil {
		t.Error("expected a validation error for a one-element center")
	}
	if _, err := Load(writeConfig(t, "map:\n  sample_size: -1\n")); err == nil {
		t.Error("expected a validation error for a negative sample size")
	}
}

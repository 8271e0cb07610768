package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Zachdehooge/nyc-collisions/internal/patch"
	"github.com/Zachdehooge/nyc-collisions/internal/spatial"
)

const (
	// EnvPath names the environment variable holding a config file path.
	EnvPath = "COLLISIONS_CONFIG"
	// DefaultPath is read when no path is given; it may be absent.
	DefaultPath = "collisions.yaml"

	DefaultOutput = "collisions_map.html"
)

type Config struct {
	Input     string          `yaml:"input"`
	Output    string          `yaml:"output"`
	Map       MapConfig       `yaml:"map"`
	Notebooks NotebooksConfig `yaml:"notebooks"`
	Convert   ConvertConfig   `yaml:"convert"`
}

type MapConfig struct {
	SampleSize  int       `yaml:"sample_size"`
	ChunkSize   int       `yaml:"chunk_size"`
	Seed        uint64    `yaml:"seed"`
	HeatRadius  int       `yaml:"heat_radius"`
	Zoom        int       `yaml:"zoom"`
	Center      []float64 `yaml:"center"`
	Tiles       string    `yaml:"tiles"`
	Attribution string    `yaml:"attribution"`
}

type NotebooksConfig struct {
	Dir   string   `yaml:"dir"`
	Files []string `yaml:"files"`
	CSV   string   `yaml:"csv"`
}

type ConvertConfig struct {
	OutputDir string `yaml:"output_dir"`
	Jupyter   string `yaml:"jupyter"`
	Jobs      int    `yaml:"jobs"`
}

// Load reads the YAML config at path, expanding environment variables first.
// An empty path falls back to $COLLISIONS_CONFIG and then DefaultPath; only in
// that case is a missing file treated as an empty config.
func Load(path string) (*Config, error) {
	optional := false
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		path = DefaultPath
		optional = true
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (c *Config) setDefaults() {
	if c.Input == "" {
		c.Input = patch.DefaultCSVPath
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}

	if c.Map.SampleSize == 0 {
		c.Map.SampleSize = spatial.DefaultSampleSize
	}
	if c.Map.ChunkSize == 0 {
		c.Map.ChunkSize = spatial.DefaultChunkSize
	}
	if c.Map.Seed == 0 {
		c.Map.Seed = spatial.DefaultSeed
	}
	if c.Map.HeatRadius == 0 {
		c.Map.HeatRadius = spatial.DefaultHeatRadius
	}
	if c.Map.Zoom == 0 {
		c.Map.Zoom = spatial.DefaultZoom
	}
	if len(c.Map.Center) == 0 {
		c.Map.Center = []float64{spatial.DefaultCenter.Lat, spatial.DefaultCenter.Lng}
	}
	if c.Map.Tiles == "" {
		c.Map.Tiles = spatial.DefaultTileURL
	}
	if c.Map.Attribution == "" {
		c.Map.Attribution = spatial.DefaultAttribution
	}

	if c.Notebooks.Dir == "" {
		c.Notebooks.Dir = "notebooks"
	}
	if len(c.Notebooks.Files) == 0 {
		c.Notebooks.Files = []string{"notebooks/explainer.ipynb", "notebooks/analysis.ipynb"}
	}
	if c.Notebooks.CSV == "" {
		c.Notebooks.CSV = patch.DefaultCSVPath
	}

	if c.Convert.OutputDir == "" {
		c.Convert.OutputDir = "."
	}
	if c.Convert.Jupyter == "" {
		c.Convert.Jupyter = "jupyter"
	}
	if c.Convert.Jobs == 0 {
		c.Convert.Jobs = 1
	}
}

func (c *Config) validate() error {
	if c.Map.SampleSize < 0 {
		return fmt.Errorf("map.sample_size must be positive, got %d", c.Map.SampleSize)
	}
	if c.Map.ChunkSize < 0 {
		return fmt.Errorf("map.chunk_size must be positive, got %d", c.Map.ChunkSize)
	}
	if len(c.Map.Center) != 2 {
		return fmt.Errorf("map.center must be [lat, lng], got %v", c.Map.Center)
	}
	if c.Convert.Jobs < 0 {
		return fmt.Errorf("convert.jobs must be positive, got %d", c.Convert.Jobs)
	}
	return nil
}

// RenderOptions maps the map section onto spatial render options.
func (c *Config) RenderOptions() spatial.Options {
	return spatial.Options{
		SampleSize:  c.Map.SampleSize,
		ChunkSize:   c.Map.ChunkSize,
		Seed:        c.Map.Seed,
		HeatRadius:  c.Map.HeatRadius,
		Center:      spatial.LatLng{Lat: c.Map.Center[0], Lng: c.Map.Center[1]},
		Zoom:        c.Map.Zoom,
		TileURL:     c.Map.Tiles,
		Attribution: c.Map.Attribution,
	}
}

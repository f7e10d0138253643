// Package config handles configuration loading for the heatmap server.
package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Cache  CacheConfig  `yaml:"cache"`
	Render RenderConfig `yaml:"render"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	Title       string   `yaml:"title"`
}

// DatasetConfig locates one dataset on disk.
type DatasetConfig struct {
	Path string `yaml:"path"`
}

// DataConfig contains data source settings. Datasets keep their YAML order;
// the first one is the default unless default_dataset says otherwise.
type DataConfig struct {
	Datasets       map[string]DatasetConfig `yaml:"datasets"`
	DefaultDataset string                   `yaml:"default_dataset"`
	Watch          bool                     `yaml:"watch"`
	WatchSettleMS  int                      `yaml:"watch_settle_ms"`

	// Path is the single-dataset shorthand; it becomes the "default" dataset.
	Path string `yaml:"path"`

	order []string
}

// UnmarshalYAML decodes the data section and recovers the YAML order of the
// datasets block, which map decoding loses.
func (d *DataConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain DataConfig
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = DataConfig(p)

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "datasets" {
			continue
		}
		block := node.Content[i+1]
		for j := 0; j+1 < len(block.Content); j += 2 {
			d.order = append(d.order, block.Content[j].Value)
		}
	}
	return nil
}

// DatasetIDs returns the dataset IDs in YAML order. Configs built in code
// get a sorted order instead.
func (d *DataConfig) DatasetIDs() []string {
	if len(d.order) == len(d.Datasets) {
		return d.order
	}
	ids := make([]string, 0, len(d.Datasets))
	for id := range d.Datasets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SettleWindow returns the watcher debounce window.
func (d *DataConfig) SettleWindow() time.Duration {
	return time.Duration(d.WatchSettleMS) * time.Millisecond
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	FrameSizeMB     int `yaml:"frame_size_mb"`
	FrameTTLMinutes int `yaml:"frame_ttl_minutes"`
	QueryCacheSize  int `yaml:"query_cache_size"`
}

// RenderConfig contains rendering settings.
type RenderConfig struct {
	CellSize        float64 `yaml:"cell_size"`
	GapSize         float64 `yaml:"gap_size"`
	Padding         float64 `yaml:"padding"`
	MaxWidth        float64 `yaml:"max_width"`
	MaxHeight       float64 `yaml:"max_height"`
	DefaultColormap string  `yaml:"default_colormap"`
	NaNColor        string  `yaml:"nan_color"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Data: DataConfig{
			Datasets:       map[string]DatasetConfig{"default": {Path: "./data/demo"}},
			DefaultDataset: "default",
			WatchSettleMS:  250,
			order:          []string{"default"},
		},
		Cache: CacheConfig{
			FrameSizeMB:     256,
			FrameTTLMinutes: 10,
			QueryCacheSize:  128,
		},
		Render: RenderConfig{
			CellSize:        12,
			GapSize:         6,
			Padding:         40,
			MaxWidth:        1000,
			MaxHeight:       500,
			DefaultColormap: "viridis",
			NaNColor:        "#c8c8c8",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}

	// Single-dataset shorthand: data.path stands in for a datasets block.
	if len(cfg.Data.Datasets) == 0 && cfg.Data.Path != "" {
		cfg.Data.Datasets = map[string]DatasetConfig{"default": {Path: cfg.Data.Path}}
		cfg.Data.order = []string{"default"}
	}
	if len(cfg.Data.Datasets) == 0 {
		cfg.Data.Datasets = defaults.Data.Datasets
		cfg.Data.order = defaults.Data.order
	}
	if _, ok := cfg.Data.Datasets[cfg.Data.DefaultDataset]; !ok {
		cfg.Data.DefaultDataset = cfg.Data.DatasetIDs()[0]
	}
	if cfg.Data.WatchSettleMS <= 0 {
		cfg.Data.WatchSettleMS = defaults.Data.WatchSettleMS
	}

	if cfg.Cache.FrameSizeMB == 0 {
		cfg.Cache.FrameSizeMB = defaults.Cache.FrameSizeMB
	}
	if cfg.Cache.FrameTTLMinutes == 0 {
		cfg.Cache.FrameTTLMinutes = defaults.Cache.FrameTTLMinutes
	}
	if cfg.Cache.QueryCacheSize == 0 {
		cfg.Cache.QueryCacheSize = defaults.Cache.QueryCacheSize
	}

	if cfg.Render.CellSize == 0 {
		cfg.Render.CellSize = defaults.Render.CellSize
	}
	if cfg.Render.GapSize == 0 {
		cfg.Render.GapSize = defaults.Render.GapSize
	}
	if cfg.Render.Padding == 0 {
		cfg.Render.Padding = defaults.Render.Padding
	}
	if cfg.Render.MaxWidth == 0 {
		cfg.Render.MaxWidth = defaults.Render.MaxWidth
	}
	if cfg.Render.MaxHeight == 0 {
		cfg.Render.MaxHeight = defaults.Render.MaxHeight
	}
	if cfg.Render.DefaultColormap == "" {
		cfg.Render.DefaultColormap = defaults.Render.DefaultColormap
	}
	if cfg.Render.NaNColor == "" {
		cfg.Render.NaNColor = defaults.Render.NaNColor
	}
}

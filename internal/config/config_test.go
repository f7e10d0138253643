package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func loadFromString(t *testing.T, content string) *Config {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func TestLoadMultiDataset(t *testing.T) {
	content := `
server:
  port: 9000
  title: "Lab heatmaps"
data:
  datasets:
    pbmc:
      path: /data/pbmc
    liver:
      path: /data/liver
  watch: true
render:
  default_colormap: rdbu
`
	cfg := loadFromString(t, content)

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.Title != "Lab heatmaps" {
		t.Errorf("title = %q", cfg.Server.Title)
	}
	if len(cfg.Data.Datasets) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(cfg.Data.Datasets))
	}
	if cfg.Data.Datasets["pbmc"].Path != "/data/pbmc" {
		t.Errorf("pbmc path = %q", cfg.Data.Datasets["pbmc"].Path)
	}
	if !cfg.Data.Watch {
		t.Error("watch flag not set")
	}
	if cfg.Render.DefaultColormap != "rdbu" {
		t.Errorf("colormap = %q", cfg.Render.DefaultColormap)
	}

	// First dataset in YAML order becomes the default.
	if cfg.Data.DefaultDataset != "pbmc" {
		t.Errorf("default dataset = %q, want pbmc", cfg.Data.DefaultDataset)
	}
	ids := cfg.Data.DatasetIDs()
	if len(ids) != 2 || ids[0] != "pbmc" || ids[1] != "liver" {
		t.Errorf("dataset order = %v", ids)
	}
}

func TestLoadSingleDatasetShorthand(t *testing.T) {
	content := `
data:
  path: /data/tumor_atlas
`
	cfg := loadFromString(t, content)

	if cfg.Data.DefaultDataset != "default" {
		t.Errorf("default dataset = %q, want default", cfg.Data.DefaultDataset)
	}
	ds, ok := cfg.Data.Datasets["default"]
	if !ok {
		t.Fatal("expected 'default' dataset")
	}
	if ds.Path != "/data/tumor_atlas" {
		t.Errorf("path = %q", ds.Path)
	}
}

func TestLoadDefaultsApplied(t *testing.T) {
	content := `
server:
  port: 0
data:
  datasets:
    test:
      path: /test
`
	cfg := loadFromString(t, content)

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		t.Error("no default CORS origins")
	}
	if cfg.Cache.FrameSizeMB != 256 {
		t.Errorf("frame cache = %d, want default 256", cfg.Cache.FrameSizeMB)
	}
	if cfg.Cache.QueryCacheSize != 128 {
		t.Errorf("query cache = %d, want default 128", cfg.Cache.QueryCacheSize)
	}
	if cfg.Render.CellSize != 12 || cfg.Render.MaxWidth != 1000 {
		t.Errorf("render defaults = %+v", cfg.Render)
	}
	if cfg.Render.NaNColor != "#c8c8c8" {
		t.Errorf("nan color = %q", cfg.Render.NaNColor)
	}
	if cfg.Data.SettleWindow() != 250*time.Millisecond {
		t.Errorf("settle window = %v", cfg.Data.SettleWindow())
	}
}

func TestLoadUnknownDefaultDataset(t *testing.T) {
	content := `
data:
  datasets:
    liver:
      path: /data/liver
  default_dataset: kidney
`
	cfg := loadFromString(t, content)

	if cfg.Data.DefaultDataset != "liver" {
		t.Errorf("default dataset = %q, want fallback to liver", cfg.Data.DefaultDataset)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 8080 || len(cfg.Data.Datasets) != 1 {
		t.Errorf("missing file should produce defaults, got %+v", cfg)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server: [broken"), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("broken YAML accepted")
	}
}

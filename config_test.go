package asset_shrinker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.PublicDir != "public" {
		t.Errorf("Expected public dir 'public', got '%s'", cfg.PublicDir)
	}
	if len(cfg.Assets) != 3 {
		t.Fatalf("Expected 3 assets, got %d", len(cfg.Assets))
	}
	expected := []struct {
		name string
		kb   int
	}{{"icon-192.png", 50}, {"icon-512.png", 200}, {CoverImageName, 300}}
	for i, e := range expected {
		if cfg.Assets[i].Input != e.name || cfg.Assets[i].Output != e.name || cfg.Assets[i].MaxSizeKB != e.kb {
			t.Errorf("Asset #%d: expected %s at %d KB, got %+v", i, e.name, e.kb, cfg.Assets[i])
		}
	}
	if cfg.Search != DefaultSearchParams() {
		t.Errorf("Expected default search params, got %+v", cfg.Search)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "shrinker.yaml")
	configContent := `
public_dir: "static"
probe: "jpegli"
assets:
  - input: "logo.png"
    max_size_kb: 20
  - input: "cover.png"
    output: "cover-small.png"
    max_size_kb: 100
search:
  initial_quality: 90
  pre_shrink_factor: 0
`
	if err := os.WriteFile(configFile, []byte(configContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.PublicDir != "static" || cfg.Probe != "jpegli" {
		t.Errorf("Expected static/jpegli, got %s/%s", cfg.PublicDir, cfg.Probe)
	}
	if cfg.BackupSuffix != ".backup" {
		t.Errorf("Expected default backup suffix to be kept, got '%s'", cfg.BackupSuffix)
	}
	if len(cfg.Assets) != 2 {
		t.Fatalf("Expected 2 assets, got %d", len(cfg.Assets))
	}
	if cfg.Assets[0].Output != "logo.png" {
		t.Errorf("Expected output to default to the input, got '%s'", cfg.Assets[0].Output)
	}
	if cfg.Assets[1].Output != "cover-small.png" || cfg.Assets[1].Budget() != 100*KB {
		t.Errorf("Unexpected second asset %+v", cfg.Assets[1])
	}
	if cfg.Search.InitialQuality != 90 || cfg.Search.PreShrinkFactor != 0 {
		t.Errorf("Expected overridden search params, got %+v", cfg.Search)
	}
	if cfg.Search.QualityStep != 10 || cfg.Search.ScaleStartPercent != 80 {
		t.Errorf("Expected untouched search params to keep defaults, got %+v", cfg.Search)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"zero budget":     "assets:\n  - input: a.png\n    max_size_kb: 0\n",
		"no input":        "assets:\n  - output: a.png\n    max_size_kb: 10\n",
		"quality range":   "search:\n  min_quality: 90\n",
		"scale range":     "search:\n  scale_min_percent: 90\n",
		"zero scale":      "search:\n  scale_min_percent: 0\n",
		"negative step":   "search:\n  scale_step_percent: -10\n",
		"empty suffix":    "backup_suffix: \"\"\n",
		"quality too big": "search:\n  initial_quality: 120\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			configFile := filepath.Join(t.TempDir(), "shrinker.yaml")
			if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfig(configFile)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}
}

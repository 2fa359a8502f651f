package asset_shrinker

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"go.mau.fi/util/ptr"
	"go.mau.fi/zeroconfig"
	"gopkg.in/yaml.v3"
)

// SearchParams controls the quality and scale search. Scales are in percent
// so that the steps are exact. ScaleMinPercent is the smallest scale tried.
type SearchParams struct {
	InitialQuality  int `yaml:"initial_quality"`
	QualityStep     int `yaml:"quality_step"`
	MinQuality      int `yaml:"min_quality"`
	FallbackQuality int `yaml:"fallback_quality"`

	ScaleStartPercent int `yaml:"scale_start_percent"`
	ScaleStepPercent  int `yaml:"scale_step_percent"`
	ScaleMinPercent   int `yaml:"scale_min_percent"`

	// Inputs larger than budget*PreShrinkFactor are shrunk by area before
	// searching. Zero disables it.
	PreShrinkFactor float64 `yaml:"pre_shrink_factor"`
}

type Config struct {
	PublicDir    string       `yaml:"public_dir"`
	BackupSuffix string       `yaml:"backup_suffix"`
	Probe        string       `yaml:"probe"`
	Assets       []Asset      `yaml:"assets"`
	Search       SearchParams `yaml:"search"`

	Logging zeroconfig.Config `yaml:"logging"`
}

func DefaultSearchParams() SearchParams {
	return SearchParams{
		InitialQuality:    85,
		QualityStep:       10,
		MinQuality:        10,
		FallbackQuality:   75,
		ScaleStartPercent: 80,
		ScaleStepPercent:  10,
		ScaleMinPercent:   30,
		PreShrinkFactor:   10,
	}
}

func DefaultConfig() *Config {
	return &Config{
		PublicDir:    "public",
		BackupSuffix: ".backup",
		Probe:        "jpeg",
		Assets:       DefaultAssets(),
		Search:       DefaultSearchParams(),
		Logging: zeroconfig.Config{
			Writers: []zeroconfig.WriterConfig{{
				Type:   zeroconfig.WriterTypeStdout,
				Format: zeroconfig.LogFormatPrettyColored,
			}},
			MinLevel: ptr.Ptr(zerolog.InfoLevel),
		},
	}
}

// LoadConfig reads the YAML file at path on top of the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var ErrInvalidConfig = errors.New("invalid config")

// Validate checks the config and fills in outputs that were left empty.
func (cfg *Config) Validate() error {
	if cfg.PublicDir == "" {
		return fmt.Errorf("%w: public_dir cannot be empty", ErrInvalidConfig)
	}
	if cfg.BackupSuffix == "" {
		return fmt.Errorf("%w: backup_suffix cannot be empty", ErrInvalidConfig)
	}
	if len(cfg.Assets) == 0 {
		return fmt.Errorf("%w: no assets specified", ErrInvalidConfig)
	}
	for i := range cfg.Assets {
		asset := &cfg.Assets[i]
		if asset.Input == "" {
			return fmt.Errorf("%w: asset #%d has no input", ErrInvalidConfig, i+1)
		}
		if asset.Output == "" {
			asset.Output = asset.Input
		}
		if asset.MaxSizeKB <= 0 {
			return fmt.Errorf("%w: %s: max_size_kb must be greater than zero", ErrInvalidConfig, asset.Input)
		}
	}
	return cfg.Search.Validate()
}

func (p *SearchParams) Validate() error {
	switch {
	case p.InitialQuality < 1 || p.InitialQuality > 100:
		return fmt.Errorf("%w: initial_quality must be between 1 and 100", ErrInvalidConfig)
	case p.MinQuality < 0 || p.MinQuality >= p.InitialQuality:
		return fmt.Errorf("%w: min_quality must be below initial_quality", ErrInvalidConfig)
	case p.QualityStep <= 0:
		return fmt.Errorf("%w: quality_step must be greater than zero", ErrInvalidConfig)
	case p.FallbackQuality < 1 || p.FallbackQuality > 100:
		return fmt.Errorf("%w: fallback_quality must be between 1 and 100", ErrInvalidConfig)
	case p.ScaleStartPercent > 100 || p.ScaleMinPercent <= 0 || p.ScaleMinPercent > p.ScaleStartPercent:
		return fmt.Errorf("%w: scale range must satisfy 0 < scale_min_percent <= scale_start_percent <= 100", ErrInvalidConfig)
	case p.ScaleStepPercent <= 0:
		return fmt.Errorf("%w: scale_step_percent must be greater than zero", ErrInvalidConfig)
	case p.PreShrinkFactor < 0:
		return fmt.Errorf("%w: pre_shrink_factor cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// apply copies the command line overrides into the config.
func (opts *Options) apply(cfg *Config) {
	if opts.PublicDir != "" {
		cfg.PublicDir = opts.PublicDir
	}
	if opts.Probe != "" {
		cfg.Probe = opts.Probe
	}
	if opts.BackupSuffix != "" {
		cfg.BackupSuffix = opts.BackupSuffix
	}
}

func RegisterFlags(f *flag.FlagSet, opts *Options) {
	f.StringVar(&opts.PublicDir, "dir", "", "The directory with the assets (default \"public\")")
	f.StringVar(&opts.ConfigPath, "config", "", "Optional YAML file overriding the asset list and search parameters")
	f.StringVar(&opts.Probe, "probe", "", "Lossy encoder used to probe sizes: jpeg, jpegli or webp (default \"jpeg\")")
	f.StringVar(&opts.BackupSuffix, "backup-suffix", "", "Suffix of the backup copies of the originals (default \".backup\")")
	f.BoolVar(&opts.DryRun, "dry-run", false, "Search and report without writing backups or outputs")
	f.BoolVar(&opts.Butteraugli, "butteraugli", false, "Report the butteraugli distance of each result (cgo builds only)")
}

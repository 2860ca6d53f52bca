package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all gsabyss configuration.
type Config struct {
	// Local cache directory: dataset, fonts, icons, asset index, logs
	Dir string `yaml:"dir" env:"GSABYSS_DIR"`

	// Upstream locations
	Sources SourcesConfig `yaml:"sources"`

	// Remote request behaviour
	Fetch FetchConfig `yaml:"fetch"`

	// Image output
	Render RenderConfig `yaml:"render"`

	// How often the cached dataset is replaced
	RefreshInterval string `yaml:"refresh_interval" env:"GSABYSS_REFRESH_INTERVAL"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// Cached file names inside Dir.
const (
	DatasetFile    = "abyss_hhw.json"
	AssetIndexFile = "assets.db"
)

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Dir: "data/gsabyss",

		Sources: SourcesConfig{
			DatasetURL:       "https://cdn.monsterx.cn/bot/gsabyss/abyss.json",
			ResourceURL:      "https://cdn.monsterx.cn/bot/gsabyss/",
			AkashaURL:        "https://akashadata.feixiaoqiu.com/static/data/abyss_total.js",
			CharacterIconURL: "https://t.akashadata.com/xstatic/img/c/s/%s.jpg",
		},

		Fetch: FetchConfig{
			Timeout:            "20s",
			Retries:            3,
			AssetDelay:         "2s",
			DataDelay:          "3s",
			InsecureSkipVerify: true,
			Referer:            "https://genshin.honeyhunterworld.com/d_1001/?lang=CHS",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/" +
				"104.0.5112.81 Safari/537.36 Edg/104.0.1293.47",
			MaxBytes: 32 << 20,
		},

		Render: RenderConfig{
			TitleFont:   "HYWH-85W.ttf",
			TextFont:    "SmileySans-Oblique.ttf",
			JPEGQuality: 100,
		},

		RefreshInterval: "168h",

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the defaults.
// Environment variables override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides sets every field whose GSABYSS_* variable is present.
// Unset variables leave the loaded value alone.
func (c *Config) applyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// GetRefreshInterval returns the dataset refresh interval as a duration.
func (c *Config) GetRefreshInterval() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return 7 * 24 * time.Hour
	}
	return d
}

// DatasetCachePath returns where the drift-corrected dataset is cached.
func (c *Config) DatasetCachePath() string {
	return filepath.Join(c.Dir, DatasetFile)
}

// AssetIndexPath returns the SQLite asset index location.
func (c *Config) AssetIndexPath() string {
	return filepath.Join(c.Dir, AssetIndexFile)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("cache directory not configured (set dir or GSABYSS_DIR)")
	}
	if c.Sources.DatasetURL == "" {
		return fmt.Errorf("dataset URL not configured")
	}
	if c.Fetch.Retries < 1 {
		return fmt.Errorf("fetch retries must be at least 1, got %d", c.Fetch.Retries)
	}
	if q := c.Render.JPEGQuality; q < 1 || q > 100 {
		return fmt.Errorf("jpeg quality must be within 1..100, got %d", q)
	}
	for _, s := range []string{c.Fetch.Timeout, c.Fetch.AssetDelay, c.Fetch.DataDelay, c.RefreshInterval} {
		if s == "" {
			continue
		}
		if _, err := time.ParseDuration(s); err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}
	return nil
}

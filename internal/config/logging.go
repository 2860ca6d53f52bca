package config

import "gsabyss/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level" json:"level,omitempty" env:"GSABYSS_LOG_LEVEL"` // debug, info, warn, error
	Format     string          `yaml:"format" json:"format,omitempty"`                       // json, text
	Categories map[string]bool `yaml:"categories" json:"categories,omitempty"`               // Per-category toggles

	// Master toggle - false = no category files (production)
	DebugMode bool `yaml:"debug_mode" json:"debug_mode,omitempty" env:"GSABYSS_DEBUG"`
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Returns false if debug_mode is false (production mode).
// Returns true if debug_mode is true and category is enabled (or not specified).
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	if c.Categories == nil {
		return true // All enabled by default in debug mode
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true // Enable by default if not specified
	}
	return enabled
}

// Options converts the section for logging.Initialize.
func (c *LoggingConfig) Options() logging.Options {
	return logging.Options{
		DebugMode:  c.DebugMode,
		Level:      c.Level,
		JSONFormat: c.Format == "json",
		Categories: c.Categories,
	}
}

package config

import "time"

// FetchConfig configures remote requests.
type FetchConfig struct {
	Timeout            string `yaml:"timeout" env:"GSABYSS_FETCH_TIMEOUT"`
	Retries            int    `yaml:"retries" env:"GSABYSS_FETCH_RETRIES"`
	AssetDelay         string `yaml:"asset_delay"` // pause between icon attempts
	DataDelay          string `yaml:"data_delay"`  // pause between dataset/statistics attempts
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" env:"GSABYSS_INSECURE"`
	Referer            string `yaml:"referer"`
	UserAgent          string `yaml:"user_agent"`
	MaxBytes           int64  `yaml:"max_bytes"`
}

// GetTimeout returns the per-request timeout.
func (f FetchConfig) GetTimeout() time.Duration {
	return parseOr(f.Timeout, 20*time.Second)
}

// GetAssetDelay returns the delay between icon download attempts.
func (f FetchConfig) GetAssetDelay() time.Duration {
	return parseOr(f.AssetDelay, 2*time.Second)
}

// GetDataDelay returns the delay between data download attempts.
func (f FetchConfig) GetDataDelay() time.Duration {
	return parseOr(f.DataDelay, 3*time.Second)
}

func parseOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all crawler configuration knobs loaded via Viper.
type Config struct {
	Listing  ListingConfig  `mapstructure:"listing"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Measures MeasuresConfig `mapstructure:"measures"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ListingConfig governs the paginated document database crawl.
type ListingConfig struct {
	Endpoint       string        `mapstructure:"endpoint"`
	StartPage      int           `mapstructure:"start_page"`
	SnapshotDir    string        `mapstructure:"snapshot_dir"`
	MaxSnapshotAge time.Duration `mapstructure:"max_snapshot_age"`
}

// FetchConfig governs the document batch fetch.
type FetchConfig struct {
	OutputDir      string        `mapstructure:"output_dir"`
	DocumentsBase  string        `mapstructure:"documents_base"`
	SkipExisting   bool          `mapstructure:"skip_existing"`
	Workers        int           `mapstructure:"workers"`
	ShuffleSeed    int64         `mapstructure:"shuffle_seed"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
}

// MeasuresConfig governs the measure id-space crawl.
type MeasuresConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	MaxID     int    `mapstructure:"max_id"`
	OutputDir string `mapstructure:"output_dir"`
}

// HTTPConfig configures outbound request identity and politeness.
type HTTPConfig struct {
	UserAgent string  `mapstructure:"user_agent"`
	RPS       float64 `mapstructure:"rps"`
	Burst     int     `mapstructure:"burst"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listing.endpoint", "https://www.ats.aq/devAS/Meetings/SearchDocDatabase")
	v.SetDefault("listing.start_page", 1)
	v.SetDefault("listing.snapshot_dir", "data/metadata")
	v.SetDefault("listing.max_snapshot_age", "0s")
	v.SetDefault("fetch.output_dir", "data/documents")
	v.SetDefault("fetch.documents_base", "https://documents.ats.aq")
	v.SetDefault("fetch.skip_existing", true)
	v.SetDefault("fetch.workers", 4)
	v.SetDefault("fetch.shuffle_seed", 0)
	v.SetDefault("fetch.connect_timeout", "2s")
	v.SetDefault("fetch.read_timeout", "5s")
	v.SetDefault("measures.endpoint", "https://www.ats.aq/devAS/Meetings/Measure")
	v.SetDefault("measures.max_id", 1000)
	v.SetDefault("measures.output_dir", "data/measures")
	v.SetDefault("http.user_agent", "ats-crawler/0.1")
	v.SetDefault("http.rps", 2.0)
	v.SetDefault("http.burst", 1)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Listing.Endpoint == "" {
		return fmt.Errorf("listing.endpoint must be set")
	}
	if c.Listing.StartPage <= 0 {
		return fmt.Errorf("listing.start_page must be > 0")
	}
	if c.Fetch.Workers <= 0 {
		return fmt.Errorf("fetch.workers must be > 0")
	}
	if c.Fetch.ConnectTimeout <= 0 || c.Fetch.ReadTimeout <= 0 {
		return fmt.Errorf("fetch timeouts must be > 0")
	}
	if c.Measures.MaxID <= 0 {
		return fmt.Errorf("measures.max_id must be > 0")
	}
	if c.HTTP.RPS < 0 {
		return fmt.Errorf("http.rps must be >= 0")
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics.port must be > 0 when metrics are enabled")
	}
	return nil
}

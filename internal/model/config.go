package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds all runtime settings. Field tags serve both yaml.v3 (config
// show/init) and viper's mapstructure decoding.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Dataset      DatasetConfig      `yaml:"dataset" mapstructure:"dataset"`
	Periods      PeriodsConfig      `yaml:"periods" mapstructure:"periods"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls remote dataset retrieval
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	Attempts      int           `yaml:"attempts" mapstructure:"attempts"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// CacheConfig controls the memo cache and the download cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig sizes the row worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig paces remote downloads per host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// DatasetConfig names the columns of the tabular boundary
type DatasetConfig struct {
	DateColumn       string `yaml:"date_column" mapstructure:"date_column"`
	NormalizedColumn string `yaml:"normalized_column" mapstructure:"normalized_column"`
	YearColumn       string `yaml:"year_column" mapstructure:"year_column"`
	PeriodColumn     string `yaml:"period_column" mapstructure:"period_column"`
	Separator        string `yaml:"separator" mapstructure:"separator"`
}

// PeriodsConfig selects the period table and its boundary labels
type PeriodsConfig struct {
	File         string `yaml:"file" mapstructure:"file"` // Empty uses the built-in table
	UnknownLabel string `yaml:"unknown_label" mapstructure:"unknown_label"`
	BelowLabel   string `yaml:"below_label" mapstructure:"below_label"`
	AboveLabel   string `yaml:"above_label" mapstructure:"above_label"`
}

// OutputConfig controls console output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "periodize-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".periodize", "cache")
	}

	return &Config{
		HTTP: HTTPConfig{
			Timeout:       60 * time.Second,
			UserAgent:     "Periodize/0.1 (+https://github.com/ppiankov/periodize)",
			MaxBodyBytes:  100_000_000,
			Attempts:      3,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Dataset: DatasetConfig{
			DateColumn:       "dating",
			NormalizedColumn: "date_normalized",
			YearColumn:       "year_for_timeline",
			PeriodColumn:     "period_category",
			Separator:        ",",
		},
		Periods: PeriodsConfig{
			UnknownLabel: "Unknown Period",
			BelowLabel:   "Pre-Paleolithic",
			AboveLabel:   "Contemporary Period",
		},
	}
}

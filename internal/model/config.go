package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete taxscroll configuration
type Config struct {
	Document     DocumentConfig    `yaml:"document" mapstructure:"document"`
	Schema       SchemaConfig      `yaml:"schema" mapstructure:"schema"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Retrieval    RetrievalConfig   `yaml:"retrieval" mapstructure:"retrieval"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Log          LogConfig         `yaml:"log" mapstructure:"log"`
}

// DocumentConfig selects the scroll and controls how glyphs are assembled into fragments
type DocumentConfig struct {
	Path         string  `yaml:"path" mapstructure:"path"`
	Pages        []int   `yaml:"pages,omitempty" mapstructure:"pages"`       // 1-based subset; empty means every page
	RowTolerance float64 `yaml:"row_tolerance" mapstructure:"row_tolerance"` // Baseline delta (points) still counted as one row
	WordGap      float64 `yaml:"word_gap" mapstructure:"word_gap"`           // Gap, in font sizes, that inserts a space
	ColumnGap    float64 `yaml:"column_gap" mapstructure:"column_gap"`       // Gap, in font sizes, that starts a new fragment
}

// SchemaConfig tunes the anchor pattern of the field region schema
type SchemaConfig struct {
	PINLength  int     `yaml:"pin_length" mapstructure:"pin_length"`
	AnchorLift float64 `yaml:"anchor_lift" mapstructure:"anchor_lift"` // Anchor bottom edge to header band origin
}

// OutputConfig names the artifacts and the inspection sampling rate
type OutputConfig struct {
	RecordsPath string  `yaml:"records_path" mapstructure:"records_path"`
	PINsPath    string  `yaml:"pins_path" mapstructure:"pins_path"`
	CardsPath   string  `yaml:"cards_path" mapstructure:"cards_path"`
	SampleRate  float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	Verbose     bool    `yaml:"verbose" mapstructure:"verbose"`
}

// CacheConfig controls the parsed-layout cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// HTTPConfig controls the retrieval HTTP client
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// RetrievalConfig describes the remote tax-card lookup service and the identifier selection
type RetrievalConfig struct {
	StartURL      string `yaml:"start_url" mapstructure:"start_url"`
	SearchURL     string `yaml:"search_url" mapstructure:"search_url"`
	CardURL       string `yaml:"card_url" mapstructure:"card_url"` // Must contain one %s for the result token
	MaxPINs       int    `yaml:"max_pins" mapstructure:"max_pins"` // <= 0 means no limit
	Shuffle       bool   `yaml:"shuffle" mapstructure:"shuffle"`
	StopBefore    string `yaml:"stop_before,omitempty" mapstructure:"stop_before"`
	RespectRobots bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// RateLimitConfig is the per-host token bucket for retrieval
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// ConcurrencyConfig sizes the retrieval worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LogConfig configures the structured diagnostic logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// DefaultConfig returns the configuration for the Yancey County 2024 scroll
func DefaultConfig() *Config {
	return &Config{
		Document: DocumentConfig{
			RowTolerance: 2.0,
			WordGap:      0.15,
			ColumnGap:    1.0,
		},
		Schema: SchemaConfig{
			PINLength:  15,
			AnchorLift: 11.9,
		},
		Output: OutputConfig{
			RecordsPath: "scroll.json",
			PINsPath:    "parcel_ids.txt",
			CardsPath:   "cards.json",
			SampleRate:  0.01,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "taxscroll/0.1 (+https://github.com/ppiankov/taxscroll)",
			MaxBodyBytes: 2_000_000,
		},
		Retrieval: RetrievalConfig{
			StartURL:      "https://secure.webtaxpay.com/?county=yancey&state=NC",
			SearchURL:     "https://secure.webtaxpay.com/search.php",
			CardURL:       "https://secure.webtaxpay.com/taxcard.php?id=%s&mobile=",
			RespectRobots: true,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// defaultCacheDir returns the per-user cache directory for parsed layouts
func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "taxscroll")
	}
	return filepath.Join(os.TempDir(), "taxscroll-cache")
}

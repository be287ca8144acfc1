package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Marker file that identifies a constrained deployment (Termux on Android).
// Kept as a variable so tests can point it at a temp path.
var ConstrainedEnvMarker = "/data/data/com.termux/files/usr"

const (
	// MaxConcurrency is the upper clamp for the worker budget.
	MaxConcurrency = 100
)

// Config holds the entire configuration from the YAML file.
type Config struct {
	CheckURL        string          `yaml:"check_url" json:"check_url"`
	TimeoutSeconds  int             `yaml:"timeout_seconds" json:"timeout_seconds"`
	Trials          int             `yaml:"trials" json:"trials"`
	TrialIntervalMs int             `yaml:"trial_interval_ms" json:"trial_interval_ms"`
	Concurrency     int             `yaml:"concurrency" json:"concurrency"`
	Report          Report          `yaml:"report" json:"report"`
	Score           ScoreConfig     `yaml:"score" json:"score"`
	SpeedTest       SpeedTestConfig `yaml:"speedtest" json:"speedtest"`
	Notify          NotifyConfig    `yaml:"notify" json:"notify"`
	Log             LogConfig       `yaml:"log" json:"log"`
}

// Report holds report output settings.
type Report struct {
	Enable bool   `yaml:"enable" json:"enable"`
	Dir    string `yaml:"dir" json:"dir"`
}

// ScoreConfig holds composite scoring settings.
type ScoreConfig struct {
	TopN          int     `yaml:"top_n" json:"top_n"`
	LatencyWeight float64 `yaml:"latency_weight" json:"latency_weight"`
	SpeedWeight   float64 `yaml:"speed_weight" json:"speed_weight"`
}

// SpeedTestConfig holds settings for the external bulk speed test tool.
type SpeedTestConfig struct {
	Enable bool   `yaml:"enable" json:"enable"`
	Binary string `yaml:"binary" json:"binary"`
	TLS    bool   `yaml:"tls" json:"tls"`
}

// NotifyConfig holds settings for the chat notification gateway.
type NotifyConfig struct {
	Enable bool   `yaml:"enable" json:"enable"`
	URL    string `yaml:"url" json:"url"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

func LoadConfig(filePath string) (*Config, error) {
	var cfg Config
	yamlFile, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filePath, err)
	}
	err = yaml.Unmarshal(yamlFile, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML content from '%s': %w", filePath, err)
	}
	return &cfg, nil
}

// LoadOrDefault loads the config file when it exists, otherwise returns
// the defaults. A missing config file is not an error for this tool.
func LoadOrDefault(filePath string) (*Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		cfg := NewDefaultConfig()
		cfg.AdaptToEnvironment()
		return cfg, nil
	}
	cfg, err := LoadConfig(filePath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	cfg.AdaptToEnvironment()
	return cfg, nil
}

// NewDefaultConfig creates a new config with default values
func NewDefaultConfig() *Config {
	return &Config{
		CheckURL:        "https://check.proxyip.vlato.site/check",
		TimeoutSeconds:  15,
		Trials:          3,
		TrialIntervalMs: 500,
		Concurrency:     10,
		Report: Report{
			Enable: true,
			Dir:    "results",
		},
		Score: ScoreConfig{
			TopN:          10,
			LatencyWeight: 0.6,
			SpeedWeight:   0.4,
		},
		SpeedTest: SpeedTestConfig{
			Enable: false,
			Binary: "./iptest",
			TLS:    true,
		},
		Notify: NotifyConfig{
			Enable: false,
			URL:    "https://api.tg.vlato.site/",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ApplyDefaults applies default values to missing fields in the config
func (c *Config) ApplyDefaults() {
	if c.CheckURL == "" {
		c.CheckURL = "https://check.proxyip.vlato.site/check"
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 15
	}
	if c.Trials == 0 {
		c.Trials = 3
	}
	if c.TrialIntervalMs == 0 {
		c.TrialIntervalMs = 500
	}
	if c.Concurrency == 0 {
		c.Concurrency = 10
	}
	// Report defaults
	if c.Report.Dir == "" {
		c.Report.Dir = "results"
	}
	// Score defaults
	if c.Score.TopN == 0 {
		c.Score.TopN = 10
	}
	if c.Score.LatencyWeight == 0 {
		c.Score.LatencyWeight = 0.6
	}
	if c.Score.SpeedWeight == 0 {
		c.Score.SpeedWeight = 0.4
	}
	// SpeedTest defaults
	if c.SpeedTest.Binary == "" {
		c.SpeedTest.Binary = "./iptest"
	}
	// Notify defaults
	if c.Notify.URL == "" {
		c.Notify.URL = "https://api.tg.vlato.site/"
	}
	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// IsConstrainedEnv reports whether the tool runs on a constrained
// deployment (detected via a fixed filesystem marker).
func IsConstrainedEnv() bool {
	_, err := os.Stat(ConstrainedEnvMarker)
	return err == nil
}

// AdaptToEnvironment adjusts timeout and concurrency for constrained
// deployments: probe timeout doubles and the worker budget shrinks.
func (c *Config) AdaptToEnvironment() {
	if !IsConstrainedEnv() {
		return
	}
	c.TimeoutSeconds = c.TimeoutSeconds * 2
	if c.Concurrency > 5 {
		c.Concurrency = 5
	}
}

// ClampConcurrency bounds a user-supplied worker budget into [1, MaxConcurrency],
// falling back to the configured value when out of range on the low side.
func (c *Config) ClampConcurrency(requested int) int {
	if requested < 1 {
		return c.Concurrency
	}
	if requested > MaxConcurrency {
		return MaxConcurrency
	}
	return requested
}

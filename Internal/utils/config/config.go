package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Scanner struct {
		LongsFile            string `yaml:"longs_file"`
		ShortsFile           string `yaml:"shorts_file"`
		ReportFile           string `yaml:"report_file"`
		CacheFile            string `yaml:"cache_file"`
		FetchIntervalMinutes int    `yaml:"fetch_interval_minutes"`
		RecentDays           int    `yaml:"recent_days"`
	} `yaml:"scanner"`

	Bounce struct {
		ATRLength int     `yaml:"atr_length"`
		ATRMult   float64 `yaml:"atr_mult"`
	} `yaml:"bounce"`

	Earnings struct {
		ThrottleSeconds float64 `yaml:"throttle_seconds"`
		MinAnchorCount  int     `yaml:"min_anchor_count"`
	} `yaml:"earnings"`

	Datafeed struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"datafeed"`

	API struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"api"`
}

func LoadConfig() (*Config, error) {
	// Resolve path relative to this file first
	_, filePath, _, ok := runtime.Caller(0)
	var basePath string
	if ok {
		basePath = filepath.Dir(filePath)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	// Try multiple paths to find config.yaml
	possiblePaths := []string{}
	if basePath != "" {
		possiblePaths = append(possiblePaths, filepath.Join(basePath, "config.yaml"))
	}
	possiblePaths = append(possiblePaths,
		filepath.Join(cwd, "Internal", "utils", "config", "config.yaml"),
		"Internal/utils/config/config.yaml",
		"config.yaml",
	)

	var data []byte
	for _, path := range possiblePaths {
		data, err = os.ReadFile(path)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Scanner.LongsFile == "" {
		c.Scanner.LongsFile = "longs.txt"
	}
	if c.Scanner.ShortsFile == "" {
		c.Scanner.ShortsFile = "shorts.txt"
	}
	if c.Scanner.ReportFile == "" {
		c.Scanner.ReportFile = "combined_avwap.txt"
	}
	if c.Scanner.CacheFile == "" {
		c.Scanner.CacheFile = "earnings_cache.json"
	}
	if c.Scanner.FetchIntervalMinutes <= 0 {
		c.Scanner.FetchIntervalMinutes = 45
	}
	if c.Scanner.RecentDays <= 0 {
		c.Scanner.RecentDays = 10
	}
	if c.Bounce.ATRLength <= 0 {
		c.Bounce.ATRLength = 20
	}
	if c.Bounce.ATRMult <= 0 {
		c.Bounce.ATRMult = 0.05
	}
	if c.Earnings.ThrottleSeconds <= 0 {
		c.Earnings.ThrottleSeconds = 1.0
	}
	if c.Earnings.MinAnchorCount <= 0 {
		c.Earnings.MinAnchorCount = 2
	}
	if c.Datafeed.TimeoutSeconds <= 0 {
		c.Datafeed.TimeoutSeconds = 15
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":8080"
	}
}

func (c *Config) FetchInterval() time.Duration {
	return time.Duration(c.Scanner.FetchIntervalMinutes) * time.Minute
}

func (c *Config) EarningsThrottle() time.Duration {
	return time.Duration(c.Earnings.ThrottleSeconds * float64(time.Second))
}

func (c *Config) DatafeedTimeout() time.Duration {
	return time.Duration(c.Datafeed.TimeoutSeconds) * time.Second
}

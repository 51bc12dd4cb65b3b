package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string
	BasePath   string
	// PublicURL is the externally visible base of this service; dataset
	// catalog entries point consumers at {PublicURL}/{datasetId}.
	PublicURL string

	ErddapURL     string
	ErddapTimeout time.Duration

	VocabHost string

	CatalogRefreshInterval time.Duration

	RequestTimeout time.Duration
	CacheTTL       time.Duration
	CacheBackend   string // "none", "in_memory" or "memcached"

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration

	DegradedWindow   time.Duration
	DegradedErrorPct int
}

type fileConfig struct {
	Server struct {
		Port      string `yaml:"port"`
		BasePath  string `yaml:"base_path"`
		PublicURL string `yaml:"public_url"`
	} `yaml:"server"`

	Erddap struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"erddap"`

	Vocab struct {
		Host string `yaml:"host"`
	} `yaml:"vocab"`

	Catalog struct {
		RefreshInterval string `yaml:"refresh_interval"`
	} `yaml:"catalog"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend   string `yaml:"backend"`
		TTL       string `yaml:"ttl"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Health struct {
		DegradedWindow   string `yaml:"degraded_window"`
		DegradedErrorPct int    `yaml:"degraded_error_pct"`
	} `yaml:"health"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev).
// ERDDAP_URL, CACHE_BACKEND and MEMCACHED_ADDRS env vars override the
// file. Call from project root.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	cfg.BasePath = strings.TrimRight(fc.Server.BasePath, "/")
	if cfg.BasePath == "" {
		cfg.BasePath = "/geo2coverage/v1.0"
	}
	cfg.PublicURL = strings.TrimRight(fc.Server.PublicURL, "/")
	if cfg.PublicURL == "" {
		cfg.PublicURL = "http://localhost:" + cfg.ServerPort + cfg.BasePath
	}

	cfg.ErddapURL = strings.TrimSpace(os.Getenv("ERDDAP_URL"))
	if cfg.ErddapURL == "" {
		cfg.ErddapURL = fc.Erddap.URL
	}
	if cfg.ErddapURL == "" {
		cfg.ErddapURL = "https://erddap.emso.eu/erddap"
	}
	cfg.ErddapTimeout = parseDuration(fc.Erddap.Timeout, 30*time.Second)

	cfg.VocabHost = strings.TrimSpace(fc.Vocab.Host)

	cfg.CatalogRefreshInterval = parseDuration(fc.Catalog.RefreshInterval, time.Hour)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 60*time.Second)

	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 5*time.Minute)
	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS < 0 {
		cfg.RateLimitRPS = 0
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 2 * cfg.RateLimitRPS
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 30*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.DegradedWindow = parseDuration(fc.Health.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = fc.Health.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 50
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation. The request timeout must exceed
// the upstream timeout or every slow ERDDAP answer dies twice.
func validate(cfg *Config) error {
	if !strings.HasPrefix(cfg.BasePath, "/") {
		return fmt.Errorf("server.base_path must start with /, got %q", cfg.BasePath)
	}
	if cfg.RequestTimeout <= cfg.ErddapTimeout {
		cfg.RequestTimeout = cfg.ErddapTimeout + time.Second
	}
	switch cfg.CacheBackend {
	case "none", "in_memory", "memcached":
		// valid
	default:
		return fmt.Errorf("cache.backend must be none, in_memory or memcached, got %q", cfg.CacheBackend)
	}
	return nil
}

package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Journal    JournalConfig    `yaml:"journal"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds the UI-facing HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// UpstreamConfig describes the remote authoritative station-control API.
type UpstreamConfig struct {
	BaseURL             string        `yaml:"base_url"`
	TimeoutSeconds      int           `yaml:"timeout_seconds"`
	HTTPProxy           string        `yaml:"http_proxy"`
	ReconnectMinSeconds int           `yaml:"reconnect_min_seconds"`
	ReconnectMaxSeconds int           `yaml:"reconnect_max_seconds"`
	Timeout             time.Duration `yaml:"-"`
	ReconnectMin        time.Duration `yaml:"-"`
	ReconnectMax        time.Duration `yaml:"-"`
}

// JournalConfig holds the local operations-journal database configuration.
// A DSN starting with "postgres://" or containing "host=" selects Postgres;
// anything else is treated as a SQLite path.
type JournalConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for web push notifications. Push is
// disabled when the keys are empty.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the push notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads the configuration from the given path and normalizes defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Upstream.TimeoutSeconds <= 0 {
		cfg.Upstream.TimeoutSeconds = 30
	}
	if cfg.Upstream.ReconnectMinSeconds <= 0 {
		cfg.Upstream.ReconnectMinSeconds = 1
	}
	if cfg.Upstream.ReconnectMaxSeconds < cfg.Upstream.ReconnectMinSeconds {
		cfg.Upstream.ReconnectMaxSeconds = 30
	}
	cfg.Upstream.Timeout = time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second
	cfg.Upstream.ReconnectMin = time.Duration(cfg.Upstream.ReconnectMinSeconds) * time.Second
	cfg.Upstream.ReconnectMax = time.Duration(cfg.Upstream.ReconnectMaxSeconds) * time.Second

	if cfg.Journal.DSN == "" {
		cfg.Journal.DSN = "stationd.db"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return &cfg, nil
}

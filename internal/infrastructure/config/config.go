package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cryptotracker/internal/infrastructure/feed"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvCoinGeckoAPIKey 覆盖 fallback.api_key
const EnvCoinGeckoAPIKey = "CRYPTOTRACKER_COINGECKO_API_KEY"

type Config struct {
	App struct {
		LogLevel          string `toml:"log_level" yaml:"log_level"`
		Currency          string `toml:"currency" yaml:"currency"`
		MaxAlerts         int    `toml:"max_alerts" yaml:"max_alerts"`
		ReconcileEveryMin int    `toml:"reconcile_every_min" yaml:"reconcile_every_min"`
		PerPage           int    `toml:"per_page" yaml:"per_page"`
	} `toml:"app" yaml:"app"`

	Assets struct {
		List []string `toml:"list" yaml:"list"`
	} `toml:"assets" yaml:"assets"`

	Stream struct {
		Provider             string `toml:"provider" yaml:"provider"`
		WsURL                string `toml:"ws_url" yaml:"ws_url"`
		HeartbeatSec         int    `toml:"heartbeat_sec" yaml:"heartbeat_sec"`
		ReconnectIntervalMs  int    `toml:"reconnect_interval_ms" yaml:"reconnect_interval_ms"`
		MaxReconnectAttempts int    `toml:"max_reconnect_attempts" yaml:"max_reconnect_attempts"`
		DialTimeoutSec       int    `toml:"dial_timeout_sec" yaml:"dial_timeout_sec"`
	} `toml:"stream" yaml:"stream"`

	Fallback struct {
		RestURL         string `toml:"rest_url" yaml:"rest_url"`
		PollIntervalSec int    `toml:"poll_interval_sec" yaml:"poll_interval_sec"`
		RequestsPerMin  int    `toml:"requests_per_min" yaml:"requests_per_min"`
		APIKey          string `toml:"api_key" yaml:"api_key"`
	} `toml:"fallback" yaml:"fallback"`

	Storage struct {
		SQLite struct {
			Enabled bool   `toml:"enabled" yaml:"enabled"`
			Path    string `toml:"path" yaml:"path"`
		} `toml:"sqlite" yaml:"sqlite"`

		Redis struct {
			Enabled    bool   `toml:"enabled" yaml:"enabled"`
			Addr       string `toml:"addr" yaml:"addr"`
			Password   string `toml:"password" yaml:"password"`
			DB         int    `toml:"db" yaml:"db"`
			Prefix     string `toml:"prefix" yaml:"prefix"`
			TTLSeconds int    `toml:"ttl_seconds" yaml:"ttl_seconds"`
		} `toml:"redis" yaml:"redis"`

		Postgres struct {
			Enabled bool   `toml:"enabled" yaml:"enabled"`
			DSN     string `toml:"dsn" yaml:"dsn"`
		} `toml:"postgres" yaml:"postgres"`
	} `toml:"storage" yaml:"storage"`

	Notify struct {
		Console bool `toml:"console" yaml:"console"`

		Redis struct {
			Enabled bool   `toml:"enabled" yaml:"enabled"`
			Stream  string `toml:"stream" yaml:"stream"`
			Channel string `toml:"channel" yaml:"channel"`
		} `toml:"redis" yaml:"redis"`
	} `toml:"notify" yaml:"notify"`

	HTTP struct {
		Enabled bool   `toml:"enabled" yaml:"enabled"`
		Addr    string `toml:"addr" yaml:"addr"`
	} `toml:"http" yaml:"http"`
}

// Load 读取 TOML 配置；.yaml/.yml 后缀按 YAML 解析
func Load(path string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if key := strings.TrimSpace(os.Getenv(EnvCoinGeckoAPIKey)); key != "" {
		cfg.Fallback.APIKey = key
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.Currency == "" {
		cfg.App.Currency = "usd"
	}
	cfg.App.Currency = strings.ToLower(strings.TrimSpace(cfg.App.Currency))
	if cfg.App.MaxAlerts <= 0 {
		cfg.App.MaxAlerts = 20
	}
	if cfg.App.ReconcileEveryMin <= 0 {
		cfg.App.ReconcileEveryMin = 5
	}
	if cfg.App.PerPage <= 0 {
		cfg.App.PerPage = 50
	}

	if cfg.Stream.Provider == "" {
		cfg.Stream.Provider = "binance"
	}
	if p, ok := feed.Lookup(cfg.Stream.Provider); ok && cfg.Stream.WsURL == "" {
		cfg.Stream.WsURL = p.DefaultURL
	}
	if cfg.Stream.HeartbeatSec <= 0 {
		cfg.Stream.HeartbeatSec = 30
	}
	if cfg.Stream.ReconnectIntervalMs <= 0 {
		cfg.Stream.ReconnectIntervalMs = 3000
	}
	if cfg.Stream.MaxReconnectAttempts <= 0 {
		cfg.Stream.MaxReconnectAttempts = 10
	}
	if cfg.Stream.DialTimeoutSec <= 0 {
		cfg.Stream.DialTimeoutSec = 10
	}

	if cfg.Fallback.RestURL == "" {
		cfg.Fallback.RestURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.Fallback.PollIntervalSec <= 0 {
		cfg.Fallback.PollIntervalSec = 30
	}
	if cfg.Fallback.RequestsPerMin <= 0 {
		cfg.Fallback.RequestsPerMin = 30
	}

	if cfg.Storage.SQLite.Enabled && cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "data/cryptotracker.db"
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "cryptotracker"
	}

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
}

func validate(cfg *Config) error {
	cfg.Assets.List = normalizeAssets(cfg.Assets.List)
	if len(cfg.Assets.List) == 0 {
		return errors.New("assets.list is empty")
	}

	if _, ok := feed.Lookup(cfg.Stream.Provider); !ok {
		return fmt.Errorf("stream.provider %q not supported, have %v", cfg.Stream.Provider, feed.Providers())
	}

	if cfg.Storage.Redis.Enabled && strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
		return errors.New("storage.redis.addr empty but enabled")
	}
	if cfg.Storage.Postgres.Enabled && strings.TrimSpace(cfg.Storage.Postgres.DSN) == "" {
		return errors.New("storage.postgres.dsn empty but enabled")
	}
	if cfg.Notify.Redis.Enabled && !cfg.Storage.Redis.Enabled {
		return errors.New("notify.redis requires storage.redis")
	}
	return nil
}

// normalizeAssets 资产 id 统一小写并去重，保持顺序
func normalizeAssets(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		id := strings.ToLower(strings.TrimSpace(s))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.Stream.HeartbeatSec) * time.Second
}

func (c *Config) ReconnectBase() time.Duration {
	return time.Duration(c.Stream.ReconnectIntervalMs) * time.Millisecond
}

func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.Stream.DialTimeoutSec) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Fallback.PollIntervalSec) * time.Second
}

func (c *Config) ReconcileEvery() time.Duration {
	return time.Duration(c.App.ReconcileEveryMin) * time.Minute
}

func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Storage.Redis.TTLSeconds) * time.Second
}

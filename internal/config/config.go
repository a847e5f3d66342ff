// Package config defines the top-level configuration for the tradedesk
// coordinator and provides loading and validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by TRADEDESK_* environment
// variables.
type Config struct {
	Gateway     GatewayConfig     `toml:"gateway"`
	Portfolio   PortfolioConfig   `toml:"portfolio"`
	Coordinator CoordinatorConfig `toml:"coordinator"`
	Redis       RedisConfig       `toml:"redis"`
	S3          S3Config          `toml:"s3"`
	Server      ServerConfig      `toml:"server"`
	Notify      NotifyConfig      `toml:"notify"`
	LogLevel    string            `toml:"log_level"`
}

// GatewayConfig holds the order gateway websocket endpoint.
type GatewayConfig struct {
	WsURL string `toml:"ws_url"`
}

// PortfolioConfig holds the snapshot API endpoint.
type PortfolioConfig struct {
	ApiURL string `toml:"api_url"`
}

// CoordinatorConfig holds execution-flow tuning.
type CoordinatorConfig struct {
	// InFlightTTLSeconds is how long a submitted symbol may await its
	// confirmation before being force-failed as timed out.
	InFlightTTLSeconds int `toml:"in_flight_ttl_seconds"`
	// SweepIntervalSeconds is the cadence of the expiry sweep.
	SweepIntervalSeconds int `toml:"sweep_interval_seconds"`
}

// RedisConfig holds snapshot-cache connection parameters. An empty Addr
// disables the cache.
type RedisConfig struct {
	Addr               string `toml:"addr"`
	Password           string `toml:"password"`
	DB                 int    `toml:"db"`
	PoolSize           int    `toml:"pool_size"`
	MaxRetries         int    `toml:"max_retries"`
	TLSEnabled         bool   `toml:"tls_enabled"`
	SnapshotTTLMinutes int    `toml:"snapshot_ttl_minutes"`
}

// S3Config holds object storage parameters for the broker session objects.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds the ops HTTP server parameters.
type ServerConfig struct {
	Enabled bool   `toml:"enabled"`
	Port    int    `toml:"port"`
	APIKey  string `toml:"api_key"`
}

// NotifyConfig holds notification channel credentials and the event
// allow-list.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			WsURL: "wss://api2.dev.forcepu.sh",
		},
		Portfolio: PortfolioConfig{
			ApiURL: "https://api.dev.forcepu.sh",
		},
		Coordinator: CoordinatorConfig{
			InFlightTTLSeconds:   90,
			SweepIntervalSeconds: 5,
		},
		Redis: RedisConfig{
			PoolSize:           10,
			MaxRetries:         3,
			SnapshotTTLMinutes: 15,
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    8080,
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for fields the coordinator cannot run
// without.
func (c *Config) Validate() error {
	var problems []string

	if c.Gateway.WsURL == "" {
		problems = append(problems, "gateway.ws_url is required")
	} else if !strings.HasPrefix(c.Gateway.WsURL, "ws://") && !strings.HasPrefix(c.Gateway.WsURL, "wss://") {
		problems = append(problems, "gateway.ws_url must be a ws:// or wss:// URL")
	}

	if c.Portfolio.ApiURL == "" {
		problems = append(problems, "portfolio.api_url is required")
	}

	if c.S3.Bucket == "" {
		problems = append(problems, "s3.bucket is required")
	}

	if c.Coordinator.InFlightTTLSeconds <= 0 {
		problems = append(problems, "coordinator.in_flight_ttl_seconds must be positive")
	}
	if c.Coordinator.SweepIntervalSeconds <= 0 {
		problems = append(problems, "coordinator.sweep_interval_seconds must be positive")
	}

	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		problems = append(problems, "server.port must be a valid TCP port")
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

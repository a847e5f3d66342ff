package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TRADEDESK_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// call Config.Validate after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TRADEDESK_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Gateway / portfolio ──
	setStr(&cfg.Gateway.WsURL, "TRADEDESK_GATEWAY_WS_URL")
	setStr(&cfg.Portfolio.ApiURL, "TRADEDESK_PORTFOLIO_API_URL")

	// ── Coordinator ──
	setInt(&cfg.Coordinator.InFlightTTLSeconds, "TRADEDESK_COORDINATOR_IN_FLIGHT_TTL_SECONDS")
	setInt(&cfg.Coordinator.SweepIntervalSeconds, "TRADEDESK_COORDINATOR_SWEEP_INTERVAL_SECONDS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "TRADEDESK_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TRADEDESK_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TRADEDESK_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TRADEDESK_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TRADEDESK_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TRADEDESK_REDIS_TLS_ENABLED")
	setInt(&cfg.Redis.SnapshotTTLMinutes, "TRADEDESK_REDIS_SNAPSHOT_TTL_MINUTES")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "TRADEDESK_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TRADEDESK_S3_REGION")
	setStr(&cfg.S3.Bucket, "TRADEDESK_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TRADEDESK_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TRADEDESK_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "TRADEDESK_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "TRADEDESK_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "TRADEDESK_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "TRADEDESK_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "TRADEDESK_SERVER_API_KEY")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "TRADEDESK_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "TRADEDESK_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "TRADEDESK_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "TRADEDESK_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "TRADEDESK_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}

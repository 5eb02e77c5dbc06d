package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppEnv      string
	Port        string
	LogLevel    string
	LogFormat   string
	DatabaseURL string
	RedisURL    string

	// TwitchIRCAddr is the host:port of the Twitch IRC TLS endpoint.
	TwitchIRCAddr string

	// BroadcastRatePerMinute caps broadcast-triggering API calls per tenant.
	BroadcastRatePerMinute int

	// BridgeTimeout bounds a single Kick bridge HTTP call.
	BridgeTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:        getEnv("APP_ENV", "development"),
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "text"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		TwitchIRCAddr: getEnv("TWITCH_IRC_ADDR", "irc.chat.twitch.tv:6697"),
		BridgeTimeout: 10 * time.Second,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	rate, err := getEnvInt("BROADCAST_RATE_PER_MINUTE", 30)
	if err != nil {
		return nil, err
	}
	if rate < 1 {
		return nil, fmt.Errorf("BROADCAST_RATE_PER_MINUTE must be at least 1, got %d", rate)
	}
	cfg.BroadcastRatePerMinute = rate

	if raw := os.Getenv("KICK_BRIDGE_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs < 1 {
			return nil, fmt.Errorf("KICK_BRIDGE_TIMEOUT_SECONDS must be a positive integer, got %q", raw)
		}
		cfg.BridgeTimeout = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return value, nil
}

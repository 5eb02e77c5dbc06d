package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/chatbridge")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "irc.chat.twitch.tv:6697", cfg.TwitchIRCAddr)
	assert.Equal(t, 30, cfg.BroadcastRatePerMinute)
	assert.Equal(t, 10*time.Second, cfg.BridgeTimeout)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoad_InvalidRate(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/chatbridge")
	t.Setenv("BROADCAST_RATE_PER_MINUTE", "zero")

	_, err := Load()
	assert.ErrorContains(t, err, "BROADCAST_RATE_PER_MINUTE")
}

func TestLoad_BridgeTimeoutOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/chatbridge")
	t.Setenv("KICK_BRIDGE_TIMEOUT_SECONDS", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.BridgeTimeout)
}

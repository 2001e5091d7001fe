package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "*", cfg.CORSOrigin)
	assert.Equal(t, 5*time.Second, cfg.CleanupGrace)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "plants-in-space", cfg.S3Bucket)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ROOM_CLEANUP_GRACE", "30")
	t.Setenv("S3_USE_SSL", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.CleanupGrace)
	assert.True(t, cfg.S3UseSSL)
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("ROOM_CLEANUP_GRACE", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.CleanupGrace)
}

package app

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		SigningKey: strings.Repeat("k", MinSigningKeyBytes),
		TokenTTL:   time.Hour,
		Port:       8080,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("missing signing key", func(t *testing.T) {
		cfg := validConfig()
		cfg.SigningKey = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("short signing key", func(t *testing.T) {
		cfg := validConfig()
		cfg.SigningKey = "too-short"
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive token ttl", func(t *testing.T) {
		cfg := validConfig()
		cfg.TokenTTL = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("port out of range", func(t *testing.T) {
		cfg := validConfig()
		cfg.Port = 70000
		require.Error(t, cfg.Validate())
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	require.Equal(t, "gatekeeper", cfg.Issuer)
	require.Equal(t, "gatekeeper.db", cfg.DatabaseFile)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("GATEKEEPER_TOKEN_TTL", "15m")
	t.Setenv("PORT", "9999")
	t.Setenv("GATEKEEPER_ISSUER", "auth.internal")

	cfg := LoadConfig()
	require.Equal(t, 15*time.Minute, cfg.TokenTTL)
	require.Equal(t, 9999, cfg.Port)
	require.Equal(t, "auth.internal", cfg.Issuer)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		HTTPPort:         8080,
		StoreDriver:      StorePostgres,
		DatabaseURL:      "postgres://localhost/coursehub",
		JWTSecret:        "0123456789abcdef0123456789abcdef",
		LogLevel:         "info",
		LogFormat:        "text",
		HistoryLimit:     100,
		DirectedDelivery: DeliverRoom,
		WSRateLimit:      10,
		WSRateBurst:      20,
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("HISTORY_LIMIT", "")
	t.Setenv("DIRECTED_DELIVERY", "")
	t.Setenv("STORE_DRIVER", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, DeliverRoom, cfg.DirectedDelivery)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.True(t, cfg.AdminRoutesEnabled)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("HISTORY_LIMIT", "50")
	t.Setenv("DIRECTED_DELIVERY", "target")
	t.Setenv("ADMIN_ROUTES_ENABLED", "false")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, StoreMongo, cfg.StoreDriver)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, DeliverTarget, cfg.DirectedDelivery)
	assert.False(t, cfg.AdminRoutesEnabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestLoadConfig_InvalidInteger(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-port")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("JWKSWithoutSecret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWTSecret = ""
		cfg.AuthJWKSURL = "https://idp.example.com/jwks"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("NoVerifier", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWTSecret = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AUTH_JWKS_URL")
	})

	t.Run("ShortSecret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWTSecret = "short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("UnknownStore", func(t *testing.T) {
		cfg := validConfig()
		cfg.StoreDriver = "sqlite"
		assert.Error(t, cfg.Validate())
	})

	t.Run("UnknownDeliveryMode", func(t *testing.T) {
		cfg := validConfig()
		cfg.DirectedDelivery = "everyone"
		assert.Error(t, cfg.Validate())
	})

	t.Run("CollectsAllProblems", func(t *testing.T) {
		cfg := validConfig()
		cfg.HTTPPort = 0
		cfg.HistoryLimit = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP_PORT")
		assert.Contains(t, err.Error(), "HISTORY_LIMIT")
	})
}

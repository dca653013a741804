package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("Tick converts seconds to duration", func(t *testing.T) {
		cfg := &Config{TickSeconds: 60}
		assert.Equal(t, time.Minute, cfg.Tick())
	})

	t.Run("ReconcileInterval converts hours to duration", func(t *testing.T) {
		cfg := &Config{ReconcileIntervalHrs: 6}
		assert.Equal(t, 6*time.Hour, cfg.ReconcileInterval())
	})

	t.Run("LeaseTTL converts minutes to duration", func(t *testing.T) {
		cfg := &Config{LeaseTTLMinutes: 30}
		assert.Equal(t, 30*time.Minute, cfg.LeaseTTL())
	})

	t.Run("ActionHistoryRetention converts days to duration", func(t *testing.T) {
		cfg := &Config{ActionHistoryRetentionDays: 90}
		assert.Equal(t, 90*24*time.Hour, cfg.ActionHistoryRetention())
	})
}

func TestLoad(t *testing.T) {
	keys := []string{
		"PORT", "DATABASE_URL", "REDIS_URL", "API_TOKEN",
		"PLANNER_URL", "BACKEND_URL", "REGISTRY_URL",
		"SCHEDULER_TICK_SECONDS", "MAX_WARMUP_STAGE", "LOG_LEVEL",
	}

	originalEnv := map[string]string{}
	for _, k := range keys {
		originalEnv[k] = os.Getenv(k)
	}
	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	setRequired := func() {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("PLANNER_URL", "http://planner.local")
		os.Setenv("BACKEND_URL", "http://backend.local")
		os.Setenv("REGISTRY_URL", "http://registry.local")
	}

	t.Run("loads config with defaults", func(t *testing.T) {
		setRequired()
		os.Unsetenv("PORT")
		os.Unsetenv("SCHEDULER_TICK_SECONDS")
		os.Unsetenv("MAX_WARMUP_STAGE")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, 60, cfg.TickSeconds)
		assert.Equal(t, 30, cfg.MaxWarmupStage)
		assert.True(t, cfg.ReconcileEnabled)
		assert.Equal(t, 20, cfg.MinBetweenActionsSecs)
		assert.Equal(t, 90, cfg.MaxBetweenActionsSecs)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		setRequired()
		os.Setenv("PORT", "3000")
		os.Setenv("SCHEDULER_TICK_SECONDS", "15")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, 15, cfg.TickSeconds)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails without required DATABASE_URL", func(t *testing.T) {
		setRequired()
		os.Unsetenv("DATABASE_URL")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("fails without required PLANNER_URL", func(t *testing.T) {
		setRequired()
		os.Unsetenv("PLANNER_URL")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			TickSeconds:           60,
			MaxWarmupStage:        30,
			MinBetweenActionsSecs: 20,
			MaxBetweenActionsSecs: 90,
			BackendRPS:            1,
		}
	}

	t.Run("accepts sane defaults outside production", func(t *testing.T) {
		assert.NoError(t, base().Validate(false))
	})

	t.Run("rejects non-positive tick", func(t *testing.T) {
		cfg := base()
		cfg.TickSeconds = 0
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects inverted pacing window", func(t *testing.T) {
		cfg := base()
		cfg.MinBetweenActionsSecs = 90
		cfg.MaxBetweenActionsSecs = 20
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects short API token in production", func(t *testing.T) {
		cfg := base()
		cfg.APIToken = "short"
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("rejects known weak API token in production", func(t *testing.T) {
		cfg := base()
		cfg.APIToken = "change-me"
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("accepts strong API token in production", func(t *testing.T) {
		cfg := base()
		cfg.APIToken = "a-very-long-token-value-with-enough-entropy-0123456789"
		assert.NoError(t, cfg.Validate(true))
	})
}

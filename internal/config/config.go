package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL,required"`
	APIToken    string `env:"API_TOKEN"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// External collaborators
	PlannerURL     string `env:"PLANNER_URL,required"`
	PlannerToken   string `env:"PLANNER_TOKEN"`
	BackendURL     string `env:"BACKEND_URL,required"`
	BackendToken   string `env:"BACKEND_TOKEN"`
	RegistryURL    string `env:"REGISTRY_URL,required"`
	RegistryToken  string `env:"REGISTRY_TOKEN"`
	BackendRPS     float64 `env:"BACKEND_RPS" envDefault:"1"`
	BackendBurst   int     `env:"BACKEND_BURST" envDefault:"3"`

	// Scheduling
	TickSeconds           int `env:"SCHEDULER_TICK_SECONDS" envDefault:"60"`
	ReconcileEnabled      bool `env:"RECONCILE_ENABLED" envDefault:"true"`
	ReconcileIntervalHrs  int  `env:"RECONCILE_INTERVAL_HOURS" envDefault:"6"`
	MaxWarmupStage        int  `env:"MAX_WARMUP_STAGE" envDefault:"30"`
	MaxStartDelayHrs      int  `env:"MAX_START_DELAY_HOURS" envDefault:"10"`

	// Executor pacing
	MinBetweenActionsSecs int `env:"MIN_BETWEEN_ACTIONS_SECONDS" envDefault:"20"`
	MaxBetweenActionsSecs int `env:"MAX_BETWEEN_ACTIONS_SECONDS" envDefault:"90"`

	// Warmup lease
	LeaseTTLMinutes int `env:"LEASE_TTL_MINUTES" envDefault:"30"`

	// Retention
	ActionHistoryRetentionDays int `env:"ACTION_HISTORY_RETENTION_DAYS" envDefault:"90"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalHrs) * time.Hour
}

func (c *Config) MaxStartDelay() time.Duration {
	return time.Duration(c.MaxStartDelayHrs) * time.Hour
}

func (c *Config) MinBetweenActions() time.Duration {
	return time.Duration(c.MinBetweenActionsSecs) * time.Second
}

func (c *Config) MaxBetweenActions() time.Duration {
	return time.Duration(c.MaxBetweenActionsSecs) * time.Second
}

func (c *Config) LeaseTTL() time.Duration {
	return time.Duration(c.LeaseTTLMinutes) * time.Minute
}

func (c *Config) ActionHistoryRetention() time.Duration {
	return time.Duration(c.ActionHistoryRetentionDays) * 24 * time.Hour
}

func (c *Config) Validate(isProduction bool) error {
	if c.TickSeconds <= 0 {
		return fmt.Errorf("SCHEDULER_TICK_SECONDS must be positive")
	}
	if c.MaxWarmupStage <= 0 {
		return fmt.Errorf("MAX_WARMUP_STAGE must be positive")
	}
	if c.MinBetweenActionsSecs < 0 || c.MaxBetweenActionsSecs < c.MinBetweenActionsSecs {
		return fmt.Errorf("action pacing window is invalid: min=%d max=%d",
			c.MinBetweenActionsSecs, c.MaxBetweenActionsSecs)
	}
	if c.BackendRPS <= 0 {
		return fmt.Errorf("BACKEND_RPS must be positive")
	}

	if isProduction {
		if err := validateSecret("API_TOKEN", c.APIToken); err != nil {
			return err
		}
		if c.PlannerToken == "" {
			log.Warn().Msg("PLANNER_TOKEN is empty in production: planner requests are unauthenticated")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

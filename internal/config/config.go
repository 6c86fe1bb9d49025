// Package config loads service configuration from struct defaults, an
// optional .env file and the process environment, in that order of
// increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Port      int    `koanf:"port" validate:"min=1,max=65535"`
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format" validate:"oneof=json console"`

	DatabaseURL string `koanf:"database_url" validate:"required"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"min=0"`

	// RateLimitBackend selects where sliding-window counters live.
	RateLimitBackend       string        `koanf:"ratelimit_backend" validate:"oneof=memory redis"`
	RateLimitSweepInterval time.Duration `koanf:"ratelimit_sweep_interval"`
	RateLimitRetention     time.Duration `koanf:"ratelimit_retention"`
	TrustProxy             bool          `koanf:"trust_proxy"`
	GlobalRateLimit        int           `koanf:"global_rate_limit" validate:"min=0"`
	CORSAllowedOrigins     []string      `koanf:"cors_allowed_origins"`

	SessionSecret     string `koanf:"session_secret"`
	SecureCookies     bool   `koanf:"secure_cookies"`
	AdminPassword     string `koanf:"admin_password"`
	AdminPasswordHash string `koanf:"admin_password_hash"`
	AdminTOTPSecret   string `koanf:"admin_totp_secret"`
	CronSecret        string `koanf:"cron_secret"`

	VAPIDPublicKey  string        `koanf:"vapid_public_key"`
	VAPIDPrivateKey string        `koanf:"vapid_private_key"`
	VAPIDSubject    string        `koanf:"vapid_subject" validate:"required"`
	PushTTL         int           `koanf:"push_ttl" validate:"min=0"`
	PushTimeout     time.Duration `koanf:"push_timeout"`
	PushParallelism int           `koanf:"push_parallelism" validate:"min=1"`
	// PushSendRate caps outbound pushes per second; 0 disables pacing.
	PushSendRate float64 `koanf:"push_send_rate" validate:"min=0"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Port:      8080,
		LogLevel:  "info",
		LogFormat: "json",

		RedisAddr: "localhost:6379",

		RateLimitBackend:       "memory",
		RateLimitSweepInterval: 5 * time.Minute,
		RateLimitRetention:     time.Hour,
		GlobalRateLimit:        300,
		CORSAllowedOrigins:     []string{"*"},

		AdminPassword: "admin123",

		VAPIDSubject:    "mailto:admin@airdrophunter.com",
		PushTTL:         86400,
		PushTimeout:     10 * time.Second,
		PushParallelism: 10,
	}
}

// Load reads .env (if present) and the environment on top of Default.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return load()
}

func load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.CORSAllowedOrigins = splitList(cfg.CORSAllowedOrigins)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps DATABASE_URL to database_url.
func envKey(s string) string {
	return strings.ToLower(s)
}

// splitList expands comma-separated values coming from a single env var.
func splitList(in []string) []string {
	var out []string
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.RateLimitBackend == "redis" && strings.TrimSpace(c.RedisAddr) == "" {
		return errors.New("REDIS_ADDR is required when RATELIMIT_BACKEND=redis")
	}
	if (c.VAPIDPublicKey == "") != (c.VAPIDPrivateKey == "") {
		return errors.New("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY must be set together")
	}
	return nil
}

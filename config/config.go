// Package config loads and validates service configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	autherror "github.com/aegisx-boilerplate/aegisx-auth/internal/errors"
)

// minSecretBytes is the shortest signing secret accepted for HMAC signing.
const minSecretBytes = 32

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds PostgreSQL pool settings. An empty URL selects the
// in-memory credential store at the composition root.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// AuthConfig is the configuration surface of the token codec and the
// session service lockout policy.
type AuthConfig struct {
	Secret            string        `mapstructure:"secret"`
	Algorithm         string        `mapstructure:"algorithm"`
	Issuer            string        `mapstructure:"issuer"`
	AccessTokenTTL    time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL   time.Duration `mapstructure:"refresh_token_ttl"`
	MaxLoginAttempts  int           `mapstructure:"max_login_attempts"`
	LockoutDuration   time.Duration `mapstructure:"lockout_duration"`
	MinPasswordLength int           `mapstructure:"min_password_length"`
	CleanupSchedule   string        `mapstructure:"cleanup_schedule"`
}

// Load reads config.yaml (working dir, ./config, /etc/aegisx) and applies
// AEGISX_* environment overrides. A missing file is fine; defaults apply.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/aegisx")

	v.SetEnvPrefix("AEGISX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.max_conn_lifetime", time.Hour)

	v.SetDefault("log.level", "info")

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.algorithm", "HS256")
	v.SetDefault("auth.issuer", "aegisx-auth")
	v.SetDefault("auth.access_token_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.max_login_attempts", 5)
	v.SetDefault("auth.lockout_duration", 30*time.Minute)
	v.SetDefault("auth.min_password_length", 6)
	v.SetDefault("auth.cleanup_schedule", "@hourly")
}

// Validate enforces the startup contract. Violations are fatal
// configuration errors, never per-request failures.
func (c *Config) Validate() error {
	if len(c.Auth.Secret) < minSecretBytes {
		return autherror.New(autherror.KindConfiguration,
			fmt.Sprintf("auth.secret must be at least %d bytes", minSecretBytes))
	}
	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return autherror.New(autherror.KindConfiguration,
			fmt.Sprintf("unsupported signing algorithm %q", c.Auth.Algorithm))
	}
	if c.Auth.Issuer == "" {
		return autherror.New(autherror.KindConfiguration, "auth.issuer must be set")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return autherror.New(autherror.KindConfiguration, "auth.access_token_ttl must be positive")
	}
	if c.Auth.RefreshTokenTTL <= 0 {
		return autherror.New(autherror.KindConfiguration, "auth.refresh_token_ttl must be positive")
	}
	if c.Auth.MaxLoginAttempts <= 0 {
		return autherror.New(autherror.KindConfiguration, "auth.max_login_attempts must be positive")
	}
	if c.Auth.LockoutDuration <= 0 {
		return autherror.New(autherror.KindConfiguration, "auth.lockout_duration must be positive")
	}
	if c.Auth.MinPasswordLength <= 0 {
		return autherror.New(autherror.KindConfiguration, "auth.min_password_length must be positive")
	}

	return nil
}

// Package config loads the service configuration from the environment, an
// optional .env file and an optional config file named by CONFIG_FILE.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pnithesh/viralvision-backend/pkg/database"
	"github.com/pnithesh/viralvision-backend/pkg/utilities"
)

// knownWeakSecrets are placeholder secrets that must never sign real tokens.
var knownWeakSecrets = map[string]struct{}{
	"your-secret-key-change-this": {},
	"secret":                      {},
	"changeme":                    {},
	"CHANGE_ME":                   {},
}

const minSecretLength = 16

type Config struct {
	Server    ServerConfig
	Database  database.Config
	Log       utilities.LogConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port        int
	CORSOrigins []string
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// RateLimitConfig applies to the register and login routes, per client IP.
type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

// Load reads configuration with defaults for local development. It fails
// when the token signing secret is missing or a known placeholder, or when
// no database password is configured.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := validateDatabase(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabase reads the same sources as Load but skips the server and
// token checks. Tools that only touch the schema use it.
func LoadDatabase() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}
	if err := validateDatabase(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func read() (*Config, error) {
	// best-effort: if no .env exists, continue with the real environment
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile := v.GetString("config_file"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetInt("port"),
			CORSOrigins: splitList(v.GetString("cors_allowed_origins")),
		},
		Database: database.Config{
			DSN:            v.GetString("database_url"),
			Host:           v.GetString("db_host"),
			Port:           v.GetInt("db_port"),
			Name:           v.GetString("db_name"),
			User:           v.GetString("db_user"),
			Password:       v.GetString("db_password"),
			SSLMode:        v.GetString("db_sslmode"),
			MaxConns:       v.GetInt("db_max_conns"),
			Timeout:        v.GetDuration("db_timeout"),
			TimeZone:       v.GetString("database_timezone"),
			ClientEncoding: v.GetString("database_client_encoding"),
			AutoMigrate:    v.GetBool("db_auto_migrate"),
		},
		Log: utilities.LogConfig{
			Level:  v.GetString("log_level"),
			Dev:    v.GetBool("log_dev"),
			File:   v.GetString("log_file"),
			MaxAge: v.GetDuration("log_max_age"),
		},
		Auth: AuthConfig{
			JWTSecret:  v.GetString("jwt_secret"),
			TokenTTL:   v.GetDuration("token_ttl"),
			BcryptCost: v.GetInt("bcrypt_cost"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: v.GetInt("auth_rate_limit"),
			Burst:             v.GetInt("auth_rate_burst"),
		},
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
		if cfg.Log.Dev {
			cfg.Log.Level = "debug"
		}
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 5000)
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_name", "viralvision")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_max_conns", 5)
	v.SetDefault("db_timeout", 5*time.Second)
	v.SetDefault("db_auto_migrate", false)
	v.SetDefault("token_ttl", 7*24*time.Hour)
	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("log_max_age", 7*24*time.Hour)
	v.SetDefault("auth_rate_limit", 20)
	v.SetDefault("auth_rate_burst", 5)
}

// validateDatabase requires credentials unless a full DATABASE_URL is given.
func validateDatabase(c *Config) error {
	if c.Database.DSN == "" && c.Database.Password == "" {
		return errors.New("DB_PASSWORD or DATABASE_URL must be set")
	}
	return nil
}

func validate(c *Config) error {
	secret := strings.TrimSpace(c.Auth.JWTSecret)
	if secret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if _, weak := knownWeakSecrets[secret]; weak {
		return errors.New("JWT_SECRET must not be a placeholder value")
	}
	if len(secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Server.Port)
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST %d is out of range", c.Auth.BcryptCost)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string   `mapstructure:"PORT"`
	Env              string   `mapstructure:"ENV"`
	DatabaseURL      string   `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32    `mapstructure:"DB_MIN_CONNS"`
	RedisURL         string   `mapstructure:"REDIS_URL"`
	UserEventsStream string   `mapstructure:"USER_EVENTS_STREAM"`
	UserEventsGroup  string   `mapstructure:"USER_EVENTS_GROUP"`
	AuthServiceURL   string   `mapstructure:"AUTH_SERVICE_URL"`
	AuthSecret       string   `mapstructure:"AUTH_SECRET"`
	RPNBaseURL       string   `mapstructure:"RPN_BASE_URL"`
	RPNAPIKey        string   `mapstructure:"RPN_API_KEY"`
	HTTPTimeoutSecs  int      `mapstructure:"HTTP_TIMEOUT_SECS"`
	RateLimitRPS     float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int      `mapstructure:"RATE_LIMIT_BURST"`
	CORSOrigins      []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("USER_EVENTS_STREAM", "users.events")
	v.SetDefault("USER_EVENTS_GROUP", "registry")
	v.SetDefault("HTTP_TIMEOUT_SECS", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_URL")
	v.BindEnv("USER_EVENTS_STREAM")
	v.BindEnv("USER_EVENTS_GROUP")
	v.BindEnv("AUTH_SERVICE_URL")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("RPN_BASE_URL")
	v.BindEnv("RPN_API_KEY")
	v.BindEnv("HTTP_TIMEOUT_SECS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: running in DEVELOPMENT mode; dev auth grants admin to every request")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// the auth service URL and the token secret must both be configured so that
// permission checks are actually enforced.
func (c *Config) Validate() error {
	if c.IsDev() {
		return nil
	}
	if c.AuthServiceURL == "" {
		return fmt.Errorf("AUTH_SERVICE_URL is required when ENV=%q", c.Env)
	}
	if c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required when ENV=%q", c.Env)
	}
	return nil
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Port         string   `mapstructure:"PORT"`
	Env          string   `mapstructure:"ENV"`
	LogLevel     string   `mapstructure:"LOG_LEVEL"`
	DatabaseURL  string   `mapstructure:"DATABASE_URL"`
	DBMaxConns   int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns   int32    `mapstructure:"DB_MIN_CONNS"`
	AuthIssuer   string   `mapstructure:"AUTH_ISSUER"`
	AuthAudience string   `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL  string   `mapstructure:"AUTH_JWKS_URL"`
	AuthSecret   string   `mapstructure:"AUTH_JWT_SECRET"`
	CORSOrigins  []string `mapstructure:"CORS_ORIGINS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	PreviewLimit     int           `mapstructure:"ANALYTICS_PREVIEW_LIMIT"`
	LeaderboardScope string        `mapstructure:"ANALYTICS_LEADERBOARD_SCOPE"`
	QueryTimeout     time.Duration `mapstructure:"ANALYTICS_QUERY_TIMEOUT"`
	MaxRangeDays     int           `mapstructure:"ANALYTICS_MAX_RANGE_DAYS"`
	MetricsEnabled   bool          `mapstructure:"METRICS_ENABLED"`
}

var keys = []string{
	"PORT",
	"ENV",
	"LOG_LEVEL",
	"DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"AUTH_ISSUER",
	"AUTH_AUDIENCE",
	"AUTH_JWKS_URL",
	"AUTH_JWT_SECRET",
	"CORS_ORIGINS",
	"RATE_LIMIT_RPS",
	"RATE_LIMIT_BURST",
	"ANALYTICS_PREVIEW_LIMIT",
	"ANALYTICS_LEADERBOARD_SCOPE",
	"ANALYTICS_QUERY_TIMEOUT",
	"ANALYTICS_MAX_RANGE_DAYS",
	"METRICS_ENABLED",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("ANALYTICS_PREVIEW_LIMIT", 6)
	v.SetDefault("ANALYTICS_LEADERBOARD_SCOPE", "all-time")
	v.SetDefault("ANALYTICS_QUERY_TIMEOUT", "10s")
	v.SetDefault("ANALYTICS_MAX_RANGE_DAYS", 3660)
	v.SetDefault("METRICS_ENABLED", true)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// A missing .env is fine
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = splitList(origins)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Level parses LOG_LEVEL, falling back to info.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Validate checks that the configuration is safe to run. Outside development
// a token verifier must be configured: either a shared secret or an issuer
// or JWKS URL to fetch keys from.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSecret == "" && c.AuthIssuer == "" && c.AuthJWKSURL == "" {
		return fmt.Errorf(
			"one of AUTH_JWT_SECRET, AUTH_ISSUER or AUTH_JWKS_URL must be set when ENV=%q; "+
				"refusing to start without authentication", c.Env)
	}
	switch c.LeaderboardScope {
	case "", "all-time", "range":
	default:
		return fmt.Errorf("ANALYTICS_LEADERBOARD_SCOPE must be \"all-time\" or \"range\", got %q", c.LeaderboardScope)
	}
	if c.PreviewLimit < 0 {
		return fmt.Errorf("ANALYTICS_PREVIEW_LIMIT must not be negative, got %d", c.PreviewLimit)
	}
	if c.MaxRangeDays < 0 {
		return fmt.Errorf("ANALYTICS_MAX_RANGE_DAYS must not be negative, got %d", c.MaxRangeDays)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

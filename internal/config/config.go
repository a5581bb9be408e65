package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the service settings. Values come from an optional app.env
// file and are overridden by environment variables of the same name.
type Config struct {
	Port string `mapstructure:"PORT"`

	BackendBaseURL        string  `mapstructure:"BACKEND_BASE_URL"`
	BackendTimeoutSeconds int     `mapstructure:"BACKEND_TIMEOUT_SECONDS"`
	BackendRateLimitRPS   float64 `mapstructure:"BACKEND_RATE_LIMIT_RPS"`
	BackendMaxRetries     int     `mapstructure:"BACKEND_MAX_RETRIES"`

	Timezone     string `mapstructure:"TIMEZONE"`
	ContractFile string `mapstructure:"CONTRACT_FILE"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`
	ReadScope   string `mapstructure:"READ_SCOPE"`

	CORSOrigins        string `mapstructure:"CORS_ORIGINS"`
	SessionSecret      string `mapstructure:"SESSION_SECRET"`
	SessionIdleMinutes int    `mapstructure:"SESSION_IDLE_MINUTES"`
}

var defaults = map[string]any{
	"PORT":                    "8081",
	"BACKEND_BASE_URL":        "",
	"BACKEND_TIMEOUT_SECONDS": 15,
	"BACKEND_RATE_LIMIT_RPS":  5.0,
	"BACKEND_MAX_RETRIES":     2,
	"TIMEZONE":                "America/Montevideo",
	"CONTRACT_FILE":           "",
	"DATABASE_URL":            "",
	"READ_SCOPE":              "default",
	"CORS_ORIGINS":            "http://localhost:5173,http://localhost:3000",
	"SESSION_SECRET":          "",
	"SESSION_IDLE_MINUTES":    120,
}

// LoadConfig reads path/app.env when present and the environment.
func LoadConfig(path string) (cfg Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		err = nil
	}

	if err = v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the API server cannot run without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BackendBaseURL) == "" {
		return errors.New("BACKEND_BASE_URL is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSeconds) * time.Second
}

func (c Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

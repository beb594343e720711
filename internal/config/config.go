package config

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	sslModeDisable = "disable"
	sslModeRequire = "require"
)

type (
	Config struct {
		Host       string `mapstructure:"HOST"`
		Port       string `mapstructure:"PORT"`
		GRPCPort   string `mapstructure:"GRPC_PORT"`
		DBHost     string `mapstructure:"DB_HOST"`
		DBPort     string `mapstructure:"DB_PORT"`
		DBUser     string `mapstructure:"DB_USER"`
		DBPassword string `mapstructure:"DB_PASSWORD"`
		DBName     string `mapstructure:"DB_NAME"`
		DBSSLMode  string `mapstructure:"DB_SSL_MODE"`
		MediaRoot  string `mapstructure:"MEDIA_ROOT"`
		MediaURL   string `mapstructure:"MEDIA_URL"`
		PageSize   int    `mapstructure:"PAGE_SIZE"`
		BcryptCost int    `mapstructure:"BCRYPT_COST"`
		LogLevel   string `mapstructure:"LOG_LEVEL"`
	}
)

var envs = []string{
	"HOST", "PORT", "GRPC_PORT",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
	"MEDIA_ROOT", "MEDIA_URL", "PAGE_SIZE", "BCRYPT_COST", "LOG_LEVEL",
}

func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FOODGRAM")

	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "8000")
	v.SetDefault("GRPC_PORT", "9000")
	v.SetDefault("DB_HOST", "0.0.0.0")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "db")
	v.SetDefault("DB_SSL_MODE", sslModeDisable)
	v.SetDefault("MEDIA_ROOT", "media")
	v.SetDefault("MEDIA_URL", "/media/")
	v.SetDefault("PAGE_SIZE", 6)
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("LOG_LEVEL", "info")

	for _, key := range envs {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func validate(cfg *Config) error {
	if !oneOf(cfg.DBSSLMode, sslModeDisable, sslModeRequire) {
		return errors.New(fmt.Sprintf("DB SSL mode is invalid: %s", cfg.DBSSLMode))
	}
	if !oneOf(cfg.LogLevel, "debug", "info", "warn", "error") {
		return errors.New(fmt.Sprintf("log level is invalid: %s", cfg.LogLevel))
	}
	if cfg.PageSize < 1 {
		return errors.New(fmt.Sprintf("page size must be positive: %d", cfg.PageSize))
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return errors.New(fmt.Sprintf("bcrypt cost is out of range: %d", cfg.BcryptCost))
	}
	return nil
}

func oneOf(value string, valid ...string) bool {
	for _, v := range valid {
		if value == v {
			return true
		}
	}
	return false
}

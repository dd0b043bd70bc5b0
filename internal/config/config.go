package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata" // the reference timezone must load on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/username/legal-deadline-engine/internal/holiday"
	"github.com/username/legal-deadline-engine/internal/store"
)

// EnvPrefix prefixes every environment override, e.g. DEADLINE_STORE_DSN
const EnvPrefix = "DEADLINE"

// Config represents application configuration
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Holidays HolidaysConfig `mapstructure:"holidays"`
	Store    StoreConfig    `mapstructure:"store"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	Server   ServerConfig   `mapstructure:"server"`
}

// EngineConfig holds the reference timezone used to decide "today"
type EngineConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// HolidaysConfig selects the holiday sources
type HolidaysConfig struct {
	File            string       `mapstructure:"file"`
	BuiltinNational bool         `mapstructure:"builtin_national"`
	Remote          RemoteConfig `mapstructure:"remote"`
}

// RemoteConfig configures the BrasilAPI feed
type RemoteConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	CacheTTL string `mapstructure:"cache_ttl"`
}

// StoreConfig selects the deadline repository
type StoreConfig struct {
	Type string `mapstructure:"type"` // "memory", "file" or "postgres"
	File string `mapstructure:"file"`
	DSN  string `mapstructure:"dsn"`
}

// DaemonConfig represents daemon mode configuration
type DaemonConfig struct {
	DailyTime string `mapstructure:"daily_time"` // HH:MM in the reference timezone
	LogFile   string `mapstructure:"log_file"`
	LogLevel  string `mapstructure:"log_level"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// setDefaults registers every key so AutomaticEnv overrides reach Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.timezone", "")
	v.SetDefault("holidays.file", "")
	v.SetDefault("holidays.builtin_national", true)
	v.SetDefault("holidays.remote.enabled", false)
	v.SetDefault("holidays.remote.url", holiday.DefaultBrasilAPIURL)
	v.SetDefault("holidays.remote.cache_ttl", "24h")
	v.SetDefault("store.type", store.KindFile)
	v.SetDefault("store.file", "deadlines.json")
	v.SetDefault("store.dsn", "")
	v.SetDefault("daemon.daily_time", "07:00")
	v.SetDefault("daemon.log_file", "")
	v.SetDefault("daemon.log_level", "info")
	v.SetDefault("server.addr", ":8080")
}

// Load loads configuration from file, a .env file and DEADLINE_* variables.
// A missing config file is fine when configPath is empty.
func Load(configPath string) (*Config, error) {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.deadline-engine")
		v.AddConfigPath("/etc/deadline-engine")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.ExpandEnvVars()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Engine.Timezone == "" {
		return fmt.Errorf("engine.timezone is required")
	}
	if _, err := time.LoadLocation(c.Engine.Timezone); err != nil {
		return fmt.Errorf("engine.timezone: %w", err)
	}

	switch c.Store.Type {
	case store.KindMemory:
	case store.KindFile:
		if c.Store.File == "" {
			return fmt.Errorf("store.file is required for file store")
		}
	case store.KindPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for postgres store")
		}
	default:
		return fmt.Errorf("store.type must be 'memory', 'file' or 'postgres', got '%s'", c.Store.Type)
	}

	if c.Holidays.Remote.Enabled {
		if c.Holidays.Remote.URL == "" {
			return fmt.Errorf("holidays.remote.url is required when remote holidays are enabled")
		}
		if c.Holidays.Remote.CacheTTL != "" {
			if _, err := time.ParseDuration(c.Holidays.Remote.CacheTTL); err != nil {
				return fmt.Errorf("holidays.remote.cache_ttl: %w", err)
			}
		}
	}

	if _, _, err := parseDailyTime(c.Daemon.DailyTime); c.Daemon.DailyTime != "" && err != nil {
		return fmt.Errorf("daemon.daily_time: %w", err)
	}

	return nil
}

// Location returns the reference timezone. Validate must have passed.
func (c *EngineConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// GetCacheTTL returns the remote cache TTL. Default: 24h
func (c *RemoteConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == "" {
		return 24 * time.Hour
	}
	duration, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return duration
}

// GetDailyTime returns the configured daily sweep time in the reference zone.
// Returns hour and minute (0-23, 0-59). Default: 07:00
func (c *DaemonConfig) GetDailyTime() (hour, minute int) {
	h, m, err := parseDailyTime(c.DailyTime)
	if err != nil {
		return 7, 0
	}
	return h, m
}

func parseDailyTime(s string) (int, int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("out of range: %q", s)
	}
	return h, m, nil
}

// StoreOptions converts the store section for store.Open
func (c *StoreConfig) StoreOptions() store.Options {
	return store.Options{Kind: c.Type, File: c.File, DSN: c.DSN}
}

// ExpandEnvVars expands environment variables in config strings
func (c *Config) ExpandEnvVars() {
	c.Store.DSN = os.ExpandEnv(c.Store.DSN)
	c.Store.File = os.ExpandEnv(c.Store.File)
	c.Holidays.File = os.ExpandEnv(c.Holidays.File)
	c.Daemon.LogFile = os.ExpandEnv(c.Daemon.LogFile)
}

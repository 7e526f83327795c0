// Package config loads service configuration from defaults, a YAML file,
// a .env file and DELAYGATE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const envPrefix = "DELAYGATE"

// Version is set at build time with -ldflags "-X .../config.Version=...".
var Version = "dev"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Pending    PendingConfig    `mapstructure:"pending"`
	Downloader DownloaderConfig `mapstructure:"downloader"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Seed       SeedConfig       `mapstructure:"seed"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// PendingConfig controls the re-evaluation of held releases.
type PendingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Cron        string        `mapstructure:"cron"`
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// DownloaderConfig holds the uTorrent connection.
type DownloaderConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	UseSSL   bool   `mapstructure:"use_ssl"`
	URLBase  string `mapstructure:"url_base"`
	Category string `mapstructure:"category"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SeedConfig points at a YAML file of delay profiles applied on startup.
type SeedConfig struct {
	Path string `mapstructure:"path"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Host: "0.0.0.0", Port: 8989},
		Database: DatabaseConfig{Path: "./data/delaygate.db"},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Pending: PendingConfig{
			Enabled:     true,
			Cron:        "*/5 * * * *",
			Concurrency: 4,
			Timeout:     5 * time.Minute,
		},
		Downloader: DownloaderConfig{
			Port:    8080,
			URLBase: "/gui/",
		},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// Load reads configuration. Priority: environment variables (including
// those from .env) > config file > defaults. An empty configPath searches
// the usual locations and tolerates a missing file.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.delaygate")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Pending.Enabled {
		if _, err := cron.ParseStandard(c.Pending.Cron); err != nil {
			return fmt.Errorf("invalid pending cron %q: %w", c.Pending.Cron, err)
		}
	}
	if c.Downloader.Enabled && c.Downloader.Host == "" {
		return errors.New("downloader host is required when the downloader is enabled")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)

	v.SetDefault("database.path", d.Database.Path)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetDefault("pending.enabled", d.Pending.Enabled)
	v.SetDefault("pending.cron", d.Pending.Cron)
	v.SetDefault("pending.concurrency", d.Pending.Concurrency)
	v.SetDefault("pending.timeout", d.Pending.Timeout)

	v.SetDefault("downloader.enabled", d.Downloader.Enabled)
	v.SetDefault("downloader.host", d.Downloader.Host)
	v.SetDefault("downloader.port", d.Downloader.Port)
	v.SetDefault("downloader.username", d.Downloader.Username)
	v.SetDefault("downloader.password", d.Downloader.Password)
	v.SetDefault("downloader.use_ssl", d.Downloader.UseSSL)
	v.SetDefault("downloader.url_base", d.Downloader.URLBase)
	v.SetDefault("downloader.category", d.Downloader.Category)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)

	v.SetDefault("seed.path", d.Seed.Path)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

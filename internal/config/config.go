// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	DB       DBConfig       `mapstructure:"db"`
	Download DownloadConfig `mapstructure:"download"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// APIConfig controls access to the Gradient Academy REST API.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CrawlerConfig governs fan-out width and request pacing.
type CrawlerConfig struct {
	Workers     int           `mapstructure:"workers"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	CourseLimit int           `mapstructure:"course_limit"`
}

// DBConfig selects and configures the relational store.
type DBConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or postgres
	Path   string `mapstructure:"path"`   // sqlite file path
	DSN    string `mapstructure:"dsn"`    // postgres DSN
}

// DownloadConfig controls video download behavior.
type DownloadConfig struct {
	Dir    string `mapstructure:"dir"`
	FFmpeg string `mapstructure:"ffmpeg"`
}

// UploadConfig controls the optional remote sync step.
type UploadConfig struct {
	Remote      string `mapstructure:"remote"` // rclone remote, e.g. "drive:courses"
	Rclone      string `mapstructure:"rclone"`
	DeleteAfter bool   `mapstructure:"delete_after"`
}

// MetricsConfig toggles the Prometheus endpoint served during a crawl.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment. A .env file in the working
// directory is applied first so GRADIENT_* variables behave like the shell
// exported them.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GRADIENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.gradient-harvester")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api.gradient.academy")
	// Empty defaults keep env-only keys visible to Unmarshal.
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("crawler.workers", 5)
	v.SetDefault("crawler.min_interval", "500ms")
	v.SetDefault("crawler.course_limit", 50)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "data/gradient.db")
	v.SetDefault("db.dsn", "")
	v.SetDefault("download.dir", "downloads")
	v.SetDefault("download.ffmpeg", "ffmpeg")
	v.SetDefault("upload.remote", "")
	v.SetDefault("upload.rclone", "rclone")
	v.SetDefault("upload.delete_after", false)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be > 0")
	}
	if c.Crawler.Workers <= 0 {
		return fmt.Errorf("crawler.workers must be > 0")
	}
	if c.Crawler.MinInterval < 0 {
		return fmt.Errorf("crawler.min_interval must be >= 0")
	}
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			return fmt.Errorf("db.path must be set for the sqlite driver")
		}
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown db.driver: %s", c.DB.Driver)
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics.port must be > 0 when metrics are enabled")
	}
	return nil
}

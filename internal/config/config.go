package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	Editing  EditingConfig
	Media    MediaConfig
	Notify   NotifyConfig
}

type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	// Driver is mysql, postgres or memory.
	Driver           string
	Host             string
	Port             int
	User             string
	Password         string
	Name             string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	FallbackToMemory bool
}

type LogConfig struct {
	Level string
	// Format is json or console.
	Format string
}

type EditingConfig struct {
	QuietPeriod       time.Duration
	WriteTimeout      time.Duration
	DefaultFeePercent float64
}

type MediaConfig struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

type NotifyConfig struct {
	Capacity int
}

// fileKeys maps the dotted keys of the YAML file to their environment names.
var fileKeys = map[string]string{
	"server.port":                 "SERVER_PORT",
	"server.shutdown_timeout":     "SERVER_SHUTDOWN_TIMEOUT",
	"database.driver":             "DB_DRIVER",
	"database.host":               "DB_HOST",
	"database.port":               "DB_PORT",
	"database.user":               "DB_USER",
	"database.password":           "DB_PASSWORD",
	"database.name":               "DB_NAME",
	"database.sslmode":            "DB_SSLMODE",
	"database.max_open_conns":     "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns":     "DB_MAX_IDLE_CONNS",
	"database.conn_max_lifetime":  "DB_CONN_MAX_LIFETIME",
	"database.fallback_to_memory": "DB_FALLBACK_TO_MEMORY",
	"log.level":                   "LOG_LEVEL",
	"log.format":                  "LOG_FORMAT",
	"editing.quiet_period":        "EDIT_QUIET_PERIOD",
	"editing.write_timeout":       "EDIT_WRITE_TIMEOUT",
	"editing.default_fee_percent": "EDIT_DEFAULT_FEE_PERCENT",
	"media.dir":                   "MEDIA_DIR",
	"media.base_url":              "MEDIA_BASE_URL",
	"media.max_bytes":             "MEDIA_MAX_BYTES",
	"notify.capacity":             "NOTIFY_CAPACITY",
}

// Load builds the configuration from defaults, the optional YAML file at path
// and the environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 3306)
	v.SetDefault("DB_USER", "opsboard")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_NAME", "opsboard")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_FALLBACK_TO_MEMORY", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("EDIT_QUIET_PERIOD", "500ms")
	v.SetDefault("EDIT_WRITE_TIMEOUT", "10s")
	v.SetDefault("EDIT_DEFAULT_FEE_PERCENT", 0)
	v.SetDefault("MEDIA_DIR", "./uploads")
	v.SetDefault("MEDIA_BASE_URL", "/media")
	v.SetDefault("MEDIA_MAX_BYTES", 10<<20)
	v.SetDefault("NOTIFY_CAPACITY", 100)

	if path != "" {
		values, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(values); err != nil {
			return nil, fmt.Errorf("merging config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("SERVER_PORT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Driver:           strings.ToLower(v.GetString("DB_DRIVER")),
			Host:             v.GetString("DB_HOST"),
			Port:             v.GetInt("DB_PORT"),
			User:             v.GetString("DB_USER"),
			Password:         v.GetString("DB_PASSWORD"),
			Name:             v.GetString("DB_NAME"),
			SSLMode:          v.GetString("DB_SSLMODE"),
			MaxOpenConns:     v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:     v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime:  v.GetDuration("DB_CONN_MAX_LIFETIME"),
			FallbackToMemory: v.GetBool("DB_FALLBACK_TO_MEMORY"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Editing: EditingConfig{
			QuietPeriod:       v.GetDuration("EDIT_QUIET_PERIOD"),
			WriteTimeout:      v.GetDuration("EDIT_WRITE_TIMEOUT"),
			DefaultFeePercent: v.GetFloat64("EDIT_DEFAULT_FEE_PERCENT"),
		},
		Media: MediaConfig{
			Dir:      v.GetString("MEDIA_DIR"),
			BaseURL:  strings.TrimRight(v.GetString("MEDIA_BASE_URL"), "/"),
			MaxBytes: v.GetInt64("MEDIA_MAX_BYTES"),
		},
		Notify: NotifyConfig{
			Capacity: v.GetInt("NOTIFY_CAPACITY"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Editing.QuietPeriod <= 0 {
		return fmt.Errorf("editing quiet period must be positive, got %s", c.Editing.QuietPeriod)
	}
	if c.Editing.WriteTimeout <= 0 {
		return fmt.Errorf("editing write timeout must be positive, got %s", c.Editing.WriteTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if c.Editing.DefaultFeePercent < 0 || c.Editing.DefaultFeePercent > 100 {
		return fmt.Errorf("default fee percent must be between 0 and 100, got %v", c.Editing.DefaultFeePercent)
	}
	return nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	values := make(map[string]any)
	flatten("", doc, values)

	out := make(map[string]any, len(values))
	for k, val := range values {
		envKey, ok := fileKeys[k]
		if !ok {
			return nil, fmt.Errorf("unknown config key %q", k)
		}
		out[envKey] = val
	}
	return out, nil
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, val := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = val
	}
}

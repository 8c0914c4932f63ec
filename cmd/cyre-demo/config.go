package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is cyre-demo's full runtime configuration, layered the way
// internal/config.LoadConfig layers the main service's: defaults, then
// an optional YAML file, then environment variables, in increasing
// priority.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Breathing BreathingConfig `mapstructure:"breathing"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
}

// ServerConfig holds the HTTP/websocket listener and admin API
// settings.
type ServerConfig struct {
	Host                 string        `mapstructure:"host"`
	Port                 int           `mapstructure:"port"`
	ReadTimeout          time.Duration `mapstructure:"read_timeout"`
	WriteTimeout         time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout      time.Duration `mapstructure:"shutdown_timeout"`
	AdminRateLimitPerMin int           `mapstructure:"admin_rate_limit_per_minute"`
	AdminRateLimitBurst  int           `mapstructure:"admin_rate_limit_burst"`
	AdminAPIKeys         []string      `mapstructure:"admin_api_keys"`
}

// LogConfig mirrors pkg/logger.Config so viper can unmarshal straight
// into it.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// BreathingConfig exposes the one tunable the engine's adaptive stress
// controller takes at construction time.
type BreathingConfig struct {
	CapacityCallsPerSecond float64 `mapstructure:"capacity_calls_per_second"`
}

// SnapshotConfig controls whether and where registered channel
// payloads are persisted across restarts.
type SnapshotConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Backend  string        `mapstructure:"backend"` // "file" or "redis"
	Path     string        `mapstructure:"path"`
	RedisURL string        `mapstructure:"redis_url"`
	RedisKey string        `mapstructure:"redis_key"`
	Interval time.Duration `mapstructure:"interval"`
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8088)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.shutdown_timeout", "15s")
	viper.SetDefault("server.admin_rate_limit_per_minute", 120)
	viper.SetDefault("server.admin_rate_limit_burst", 20)
	viper.SetDefault("server.admin_api_keys", []string{})

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("log.output", "stdout")

	viper.SetDefault("breathing.capacity_calls_per_second", 50.0)

	viper.SetDefault("snapshot.enabled", false)
	viper.SetDefault("snapshot.backend", "file")
	viper.SetDefault("snapshot.path", "cyre-snapshot.json")
	viper.SetDefault("snapshot.redis_key", "cyre:snapshot:demo")
	viper.SetDefault("snapshot.interval", "30s")
}

// LoadConfig loads configuration the way internal/config.LoadConfig
// does: defaults, then configPath if non-empty, then environment
// variables (CYRE_SERVER_PORT, CYRE_LOG_LEVEL, ...), in that priority
// order.
func LoadConfig(configPath string) (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix("cyre")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		viper.SetConfigFile(configPath)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Breathing.CapacityCallsPerSecond <= 0 {
		return fmt.Errorf("breathing.capacity_calls_per_second must be positive")
	}
	if c.Snapshot.Enabled && c.Snapshot.Backend != "file" && c.Snapshot.Backend != "redis" {
		return fmt.Errorf("snapshot.backend must be \"file\" or \"redis\", got %q", c.Snapshot.Backend)
	}
	return nil
}

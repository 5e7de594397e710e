package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type ProviderConfig struct {
	// Mode selects the metric-source backend: "remote" for the provider's
	// HTTP API, "local" for the SQLite-backed development source.
	Mode    string        `mapstructure:"mode"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	DBPath  string        `mapstructure:"db_path"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level int    `mapstructure:"level"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Provider ProviderConfig `mapstructure:"provider"`
	Log      LogConfig      `mapstructure:"log"`
}

// Load reads the config file at path into a Config. An empty path yields the
// defaults, so the service can start without any file present.
func Load(path string) (*Config, error) {

	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 25*time.Second)

	v.SetDefault("provider.mode", "local")
	v.SetDefault("provider.base_url", "http://localhost:9090")
	v.SetDefault("provider.timeout", 15*time.Second)
	v.SetDefault("provider.db_path", "./db/metrics.db")

	v.SetDefault("log.file", "./log/webService.log")
	v.SetDefault("log.level", 3)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if cfg.Provider.Mode != "local" && cfg.Provider.Mode != "remote" {
		return nil, fmt.Errorf("unknown provider mode: %s", cfg.Provider.Mode)
	}

	return &cfg, nil
}

package app

import (
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables, flags, or YAML config files.
type Config struct {
	Port     string `env:"PORT" default:"3000" usage:"HTTP listen port"`
	AppName  string `env:"APP_NAME" default:"ecommerce-lite" usage:"Constant app label on every metric" flag:"app-name"`
	DBPath   string `env:"DB_PATH" default:"data/app.db" usage:"SQLite database file location" flag:"db-path"`
	Graceful GracefulConfig
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// Addr returns the listen address for the configured port.
func (c *Config) Addr() string {
	return "0.0.0.0:" + c.Port
}

// LoadConfig loads configuration from environment variables, flags, and YAML
// config files.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		Files: []string{"config.yaml", "/etc/marketlane/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	return &cfg, nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the process configuration. All state is memory-resident;
// there is nothing to configure for storage.
type Config struct {
	LogLevel        string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort        string        `yaml:"http-port" env:"HTTP_PORT" env-default:"8080"`
	OTLPEndpoint    string        `yaml:"otlp-endpoint" env:"OTLP_ENDPOINT" env-default:"otel-collector:4317"`
	CleanupInterval time.Duration `yaml:"cleanup-interval" env:"CLEANUP_INTERVAL" env-default:"1m"`
}

// MustLoad reads the yaml file named by CONFIG_PATH when set, otherwise
// the environment, and panics on failure: a process without valid
// configuration has nothing useful to do.
func MustLoad() *Config {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			panic(fmt.Errorf("unable to load config file %s: %w", path, err))
		}
		return cfg
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		panic(fmt.Errorf("unable to read config from environment: %w", err))
	}
	return cfg
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.HTTPPort
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the cabinet daemon configuration
type Config struct {
	API       APIConfig       `yaml:"api"`
	Webserver WebserverConfig `yaml:"webserver"`
	Cabinet   CabinetConfig   `yaml:"cabinet"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Auth      AuthConfig      `yaml:"auth"`
}

// APIConfig holds the remote tournament service connection settings
type APIConfig struct {
	URL     string        `yaml:"url"`
	Key     string        `yaml:"key"`
	Timeout time.Duration `yaml:"timeout"`
}

// WebserverConfig holds the local cabinet webserver settings. The
// host:port pair is also the address broadcast to the tournament
// service.
type WebserverConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// Addr returns the host:port pair announced to the tournament service
func (c *WebserverConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CabinetConfig identifies this cabinet
type CabinetConfig struct {
	Name  string `yaml:"name"`
	Group string `yaml:"group"`
}

// BroadcastConfig controls the periodic reachability announcement
type BroadcastConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// AuthConfig holds the operator credentials used to register the
// cabinet at startup. Leave empty to skip registration.
type AuthConfig struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults
	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// API defaults
	if c.API.URL == "" {
		c.API.URL = "https://api.padmiss.com"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}

	// Webserver defaults
	if c.Webserver.Host == "" {
		c.Webserver.Host = "127.0.0.1"
	}
	if c.Webserver.Port == 0 {
		c.Webserver.Port = 9090
	}
	if c.Webserver.ReadTimeout == 0 {
		c.Webserver.ReadTimeout = 5 * time.Second
	}
	if c.Webserver.WriteTimeout == 0 {
		c.Webserver.WriteTimeout = 10 * time.Second
	}
	if c.Webserver.IdleTimeout == 0 {
		c.Webserver.IdleTimeout = 120 * time.Second
	}

	// Cabinet defaults
	if c.Cabinet.Name == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "padmiss-cab"
		}
		c.Cabinet.Name = host
	}

	// Broadcast defaults
	if c.Broadcast.Interval == 0 {
		c.Broadcast.Interval = 60 * time.Second
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Broadcast.Enabled = true
	return cfg
}

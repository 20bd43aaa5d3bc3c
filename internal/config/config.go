// Package config loads server configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration unmarshals YAML strings like "2s" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr        string `yaml:"addr"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"server"`
	Storage struct {
		// Backend selects persistence: memory, file, postgres, remote.
		Backend     string `yaml:"backend"`
		FilePath    string `yaml:"file_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
		// ClickhouseDSN enables the price history store when set.
		ClickhouseDSN string `yaml:"clickhouse_dsn"`
	} `yaml:"storage"`
	Remote struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
	} `yaml:"remote"`
	Feed struct {
		// WSEndpoint enables the live tick feed when set; otherwise
		// ticks come from the synthetic price process.
		WSEndpoint   string   `yaml:"ws_endpoint"`
		Product      string   `yaml:"product"`
		TickInterval Duration `yaml:"tick_interval"`
	} `yaml:"feed"`
	Simulation struct {
		AssignmentProbability float64 `yaml:"assignment_probability"`
		Amplitude             float64 `yaml:"amplitude"`
		Floor                 float64 `yaml:"floor"`
		Ceiling               float64 `yaml:"ceiling"`
	} `yaml:"simulation"`
	Schedule struct {
		ReconcileCron string `yaml:"reconcile_cron"`
	} `yaml:"schedule"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("BTCWHEEL_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BTCWHEEL_METRICS_ADDR"); v != "" {
		cfg.Server.MetricsAddr = v
	}
	if v := os.Getenv("BTCWHEEL_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("BTCWHEEL_FILE_PATH"); v != "" {
		cfg.Storage.FilePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("BTCWHEEL_REMOTE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := os.Getenv("BTCWHEEL_REMOTE_TOKEN"); v != "" {
		cfg.Remote.Token = v
	}
	if v := os.Getenv("BTCWHEEL_FEED_WS"); v != "" {
		cfg.Feed.WSEndpoint = v
	}
	if v := os.Getenv("BTCWHEEL_ASSIGNMENT_PROBABILITY"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Simulation.AssignmentProbability = p
		}
	}
	if v := os.Getenv("BTCWHEEL_RECONCILE_CRON"); v != "" {
		cfg.Schedule.ReconcileCron = v
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.MetricsAddr == "" {
		cfg.Server.MetricsAddr = ":9090"
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	if cfg.Storage.FilePath == "" {
		cfg.Storage.FilePath = "data/btcwheel.json"
	}
	if cfg.Feed.Product == "" {
		cfg.Feed.Product = "BTC-USD"
	}
	if cfg.Feed.TickInterval == 0 {
		cfg.Feed.TickInterval = Duration(2 * time.Second)
	}
	if cfg.Simulation.AssignmentProbability == 0 {
		cfg.Simulation.AssignmentProbability = 0.05
	}
	if cfg.Schedule.ReconcileCron == "" {
		cfg.Schedule.ReconcileCron = "0 0 6 * * *"
	}

	return cfg, nil
}

// Validate checks backend-specific requirements.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "file":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
	case "remote":
		if c.Remote.BaseURL == "" || c.Remote.Token == "" {
			return fmt.Errorf("remote.base_url and remote.token are required for the remote backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Simulation.AssignmentProbability < 0 || c.Simulation.AssignmentProbability > 1 {
		return fmt.Errorf("simulation.assignment_probability must be in [0, 1]")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Database   DatabaseConfig   `yaml:"database" envconfig:"DATABASE"`
	Simulation SimulationConfig `yaml:"simulation" envconfig:"SIMULATION"`
	Events     EventsConfig     `yaml:"events" envconfig:"EVENTS"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	Tracing    TracingConfig    `yaml:"tracing" envconfig:"TRACING"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/pensim.log"`
}

// DatabaseConfig contains the backing store configuration. Driver
// "memory" runs with the seeded in-memory store; "postgres" connects to
// the configured database.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" envconfig:"DRIVER" default:"memory"`
	Host     string `yaml:"host" envconfig:"HOST" default:"localhost"`
	Port     int    `yaml:"port" envconfig:"PORT" default:"5432"`
	User     string `yaml:"user" envconfig:"USER" default:"pensim"`
	Password string `yaml:"password" envconfig:"PASSWORD"`
	Name     string `yaml:"name" envconfig:"NAME" default:"pensim"`
	SSLMode  string `yaml:"ssl_mode" envconfig:"SSL_MODE" default:"disable"`
}

// SimulationConfig contains the orchestrator tunables and the configured
// plan rules.
type SimulationConfig struct {
	// Deadline bounds one full simulate call (lookup + fan-out +
	// calculation).
	Deadline     time.Duration `yaml:"deadline" envconfig:"DEADLINE" default:"3s"`
	BatchWorkers int           `yaml:"batch_workers" envconfig:"BATCH_WORKERS" default:"8"`
	FallbackRate float64       `yaml:"fallback_rate" envconfig:"FALLBACK_RATE" default:"0.05"`
	Rules        RulesConfig   `yaml:"rules" envconfig:"RULES"`
}

// RulesConfig is the configured plan rules record served when the rules
// store has none.
type RulesConfig struct {
	NormalRetirementAge int     `yaml:"normal_retirement_age" envconfig:"NORMAL_RETIREMENT_AGE" default:"65"`
	EarlyRetirementAge  int     `yaml:"early_retirement_age" envconfig:"EARLY_RETIREMENT_AGE" default:"55"`
	MinimumTenureYears  int     `yaml:"minimum_tenure_years" envconfig:"MINIMUM_TENURE_YEARS" default:"15"`
	PenaltyRatePerYear  float64 `yaml:"penalty_rate_per_year" envconfig:"PENALTY_RATE_PER_YEAR" default:"0.05"`
	BenefitDivisor      int     `yaml:"benefit_divisor" envconfig:"BENEFIT_DIVISOR" default:"180"`
}

// EventsConfig controls the optional result event sink.
type EventsConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED" default:"true"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"100"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"50"`
}

// TracingConfig controls the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"ENABLED" default:"false"`
}

// Load loads configuration from environment variables and an optional
// config file. Environment values take precedence over file values.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("PENSIM", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile := findConfigFile(); configFile != "" {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = merge(*fileCfg, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge overlays env config on file config; env wins where it is set.
func merge(fileCfg, envCfg Config) Config {
	if envCfg.Server.Port == 0 {
		envCfg.Server.Port = fileCfg.Server.Port
	}
	if envCfg.Server.ReadTimeout == 0 {
		envCfg.Server.ReadTimeout = fileCfg.Server.ReadTimeout
	}
	if envCfg.Server.WriteTimeout == 0 {
		envCfg.Server.WriteTimeout = fileCfg.Server.WriteTimeout
	}
	if envCfg.Database.Driver == "" {
		envCfg.Database.Driver = fileCfg.Database.Driver
	}
	if envCfg.Simulation.Deadline == 0 {
		envCfg.Simulation.Deadline = fileCfg.Simulation.Deadline
	}
	if envCfg.Simulation.BatchWorkers == 0 {
		envCfg.Simulation.BatchWorkers = fileCfg.Simulation.BatchWorkers
	}
	return envCfg
}

// Validate checks configuration invariants. Violations are fatal at
// startup, before any request is served. The benefit divisor in
// particular must never reach the calculator as zero.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if c.Database.Driver != "memory" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unknown database driver: %q", c.Database.Driver)
	}
	if c.Simulation.Deadline <= 0 {
		return fmt.Errorf("simulation deadline must be positive")
	}
	if c.Simulation.BatchWorkers <= 0 {
		return fmt.Errorf("simulation batch workers must be positive")
	}
	if c.Simulation.FallbackRate < 0 {
		return fmt.Errorf("fallback rate must not be negative")
	}
	if c.Simulation.Rules.BenefitDivisor <= 0 {
		return fmt.Errorf("benefit divisor must be positive, got %d", c.Simulation.Rules.BenefitDivisor)
	}
	if c.Simulation.Rules.EarlyRetirementAge > c.Simulation.Rules.NormalRetirementAge {
		return fmt.Errorf("early retirement age exceeds normal retirement age")
	}
	return nil
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "stdout",
			FilePath: "logs/pensim.log",
		},
		Database: DatabaseConfig{
			Driver:  "memory",
			Host:    "localhost",
			Port:    5432,
			User:    "pensim",
			Name:    "pensim",
			SSLMode: "disable",
		},
		Simulation: SimulationConfig{
			Deadline:     3 * time.Second,
			BatchWorkers: 8,
			FallbackRate: 0.05,
			Rules: RulesConfig{
				NormalRetirementAge: 65,
				EarlyRetirementAge:  55,
				MinimumTenureYears:  15,
				PenaltyRatePerYear:  0.05,
				BenefitDivisor:      180,
			},
		},
		Events: EventsConfig{Enabled: true},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     100,
			Burst:   50,
		},
	}
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 3*time.Second, cfg.Simulation.Deadline)
	assert.Equal(t, 8, cfg.Simulation.BatchWorkers)
	assert.Equal(t, 180, cfg.Simulation.Rules.BenefitDivisor)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"zero deadline", func(c *Config) { c.Simulation.Deadline = 0 }},
		{"negative deadline", func(c *Config) { c.Simulation.Deadline = -time.Second }},
		{"zero batch workers", func(c *Config) { c.Simulation.BatchWorkers = 0 }},
		{"negative fallback rate", func(c *Config) { c.Simulation.FallbackRate = -0.01 }},
		{"zero benefit divisor", func(c *Config) { c.Simulation.Rules.BenefitDivisor = 0 }},
		{"negative benefit divisor", func(c *Config) { c.Simulation.Rules.BenefitDivisor = -180 }},
		{"early after normal retirement", func(c *Config) {
			c.Simulation.Rules.EarlyRetirementAge = 70
			c.Simulation.Rules.NormalRetirementAge = 65
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMergeEnvWins(t *testing.T) {
	fileCfg := Default()
	fileCfg.Server.Port = 9000
	fileCfg.Simulation.Deadline = 10 * time.Second

	envCfg := Config{}
	envCfg.Server.Port = 8081

	merged := merge(*fileCfg, envCfg)

	assert.Equal(t, 8081, merged.Server.Port, "env value takes precedence")
	assert.Equal(t, 10*time.Second, merged.Simulation.Deadline, "unset env falls back to file")
	assert.Equal(t, "memory", merged.Database.Driver)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "pensim",
		Password: "secret",
		Name:     "pensions",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=pensim password=secret dbname=pensions sslmode=require",
		d.DSN())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PENSIM_SERVER_PORT", "9191")
	t.Setenv("PENSIM_SIMULATION_DEADLINE", "5s")
	t.Setenv("PENSIM_DATABASE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Simulation.Deadline)
}

package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds process settings read from the environment and an optional .env file
type Config struct {
	// Server
	Transport string `mapstructure:"TRANSPORT"`
	Port      string `mapstructure:"PORT"`
	Env       string `mapstructure:"ENV"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Season data
	RatingsSource       string        `mapstructure:"RATINGS_SOURCE"`
	MatchesSource       string        `mapstructure:"MATCHES_SOURCE"`
	RulesFile           string        `mapstructure:"RULES_FILE"`
	ExpectedCompetitors int           `mapstructure:"EXPECTED_COMPETITORS"`
	HTTPCacheTTL        time.Duration `mapstructure:"HTTP_CACHE_TTL"`

	// Simulation
	NumSimulations      int           `mapstructure:"NUM_SIMULATIONS"`
	SimulationWorkers   int           `mapstructure:"SIMULATION_WORKERS"`
	SimulationBatchSize int           `mapstructure:"SIMULATION_BATCH_SIZE"`
	SimulationSeed      uint64        `mapstructure:"SIMULATION_SEED"`
	SimulationTimeout   time.Duration `mapstructure:"SIMULATION_TIMEOUT"`

	// Baseline cache
	RedisURL    string        `mapstructure:"REDIS_URL"`
	BaselineTTL time.Duration `mapstructure:"BASELINE_TTL"`
}

// LoadConfig reads settings with defaults, environment overrides and an optional .env file
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	v.SetDefault("TRANSPORT", "stdio")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("RATINGS_SOURCE", "data/ratings.csv")
	v.SetDefault("MATCHES_SOURCE", "data/matches.csv")
	v.SetDefault("RULES_FILE", "")
	v.SetDefault("EXPECTED_COMPETITORS", 0) // 0 skips the round-robin check
	v.SetDefault("HTTP_CACHE_TTL", "5m")

	v.SetDefault("NUM_SIMULATIONS", 10000)
	v.SetDefault("SIMULATION_WORKERS", 4)
	v.SetDefault("SIMULATION_BATCH_SIZE", 250)
	v.SetDefault("SIMULATION_SEED", 0) // 0 seeds from the clock
	v.SetDefault("SIMULATION_TIMEOUT", "5s")

	v.SetDefault("REDIS_URL", "") // empty keeps baselines in memory
	v.SetDefault("BASELINE_TTL", "1h")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	if c.Transport != "stdio" && c.Transport != "http" {
		return fmt.Errorf("TRANSPORT must be stdio or http, got %q", c.Transport)
	}
	if c.NumSimulations <= 0 {
		return fmt.Errorf("NUM_SIMULATIONS must be positive, got %d", c.NumSimulations)
	}
	if c.SimulationWorkers <= 0 {
		return fmt.Errorf("SIMULATION_WORKERS must be positive, got %d", c.SimulationWorkers)
	}
	if c.SimulationBatchSize <= 0 {
		return fmt.Errorf("SIMULATION_BATCH_SIZE must be positive, got %d", c.SimulationBatchSize)
	}
	if c.ExpectedCompetitors < 0 {
		return fmt.Errorf("EXPECTED_COMPETITORS cannot be negative, got %d", c.ExpectedCompetitors)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsHTTP() bool {
	return c.Transport == "http"
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr          string        `yaml:"addr"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	Worker        WorkerConfig  `yaml:"worker"`
	Sweep         SweepConfig   `yaml:"sweep"`
}

type WorkerConfig struct {
	Count int `yaml:"count"`
}

// SweepConfig drives the stale-request sweeper. MaxAge 0 (the default)
// disables sweeping entirely: open requests never expire on their own.
type SweepConfig struct {
	MaxAge   time.Duration `yaml:"max_age"`
	Interval time.Duration `yaml:"interval"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("CREWMARKET_ADDR", ":8080"),
		JWTSecret:     getEnv("CREWMARKET_JWT_SECRET", "supersecretkey"),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("CREWMARKET_DATABASE_PATH", "crewmarket.db"),
		TokenDuration: 1 * time.Hour,
		Worker:        WorkerConfig{Count: getEnvInt("CREWMARKET_WORKER_COUNT", 4)},
		Sweep:         SweepConfig{Interval: 10 * time.Minute},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate rejects configurations that must not reach production: the
// insecure default JWT secret is only tolerated when CREWMARKET_ENV is
// development.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("token_duration must be positive")
	}
	if c.JWTSecret == "" || (c.JWTSecret == "supersecretkey" && os.Getenv("CREWMARKET_ENV") != "development") {
		return fmt.Errorf("jwt_secret is insecure; set CREWMARKET_JWT_SECRET")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return def
}

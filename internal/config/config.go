// Package config loads worker process configuration from the environment
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration settings for a worker process
type Config struct {
	// Engine connectivity
	EngineURL     string
	ClientTimeout time.Duration

	// Local step serving
	StepHostname string
	StepPort     int

	// Async task pool
	AsyncTaskLimit int

	LogLevel string
}

const (
	DefaultEngineURL     = "http://localhost:8080"
	DefaultStepPort      = 8081
	DefaultStepHostname  = "localhost"
	DefaultClientTimeout = 30 * time.Second

	// DefaultAsyncTaskLimit bounds the number of detached async tasks a
	// worker will run concurrently. Detach blocks once the pool is full
	DefaultAsyncTaskLimit = 64

	MaxTCPPort        = 65535
	MaxAsyncTaskLimit = 100_000
)

var (
	ErrInvalidStepPort  = errors.New("invalid step port")
	ErrInvalidTaskLimit = errors.New(
		"async task limit must be positive",
	)
	ErrEngineURLEmpty = errors.New("engine URL empty")
)

// NewDefaultConfig creates a configuration with sensible defaults for all
// worker settings
func NewDefaultConfig() *Config {
	return &Config{
		EngineURL:      DefaultEngineURL,
		ClientTimeout:  DefaultClientTimeout,
		StepHostname:   DefaultStepHostname,
		StepPort:       DefaultStepPort,
		AsyncTaskLimit: DefaultAsyncTaskLimit,
		LogLevel:       "info",
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	if engineURL := os.Getenv("ENGINE_URL"); engineURL != "" {
		c.EngineURL = engineURL
	}
	if hostname := os.Getenv("STEP_HOSTNAME"); hostname != "" {
		c.StepHostname = hostname
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}

	if err := loadEnvInt("STEP_PORT", &c.StepPort, 0, MaxTCPPort); err != nil {
		return err
	}

	if err := loadEnvInt(
		"ASYNC_TASK_LIMIT", &c.AsyncTaskLimit, 0, MaxAsyncTaskLimit,
	); err != nil {
		return err
	}

	if timeoutStr := os.Getenv("CLIENT_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return fmt.Errorf("invalid CLIENT_TIMEOUT: %q", timeoutStr)
		}
		c.ClientTimeout = timeout
	}

	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.EngineURL == "" {
		return ErrEngineURLEmpty
	}
	if c.StepPort <= 0 || c.StepPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidStepPort, c.StepPort)
	}
	if c.AsyncTaskLimit <= 0 {
		return ErrInvalidTaskLimit
	}
	return nil
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max). Returns an error if
// the value cannot be parsed or falls outside the valid range
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}

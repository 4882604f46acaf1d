// Copyright (c) 2026 Ticketloft. All rights reserved.
// Author: dev@ticketloft.app

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (store drivers) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This keeps the CLI Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Supported durable-store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// # Configuration Schema

// Config holds all runtime configuration for the Ticketloft CLI.
type Config struct {

	// StoreDriver selects the durable key-value medium.
	// One of: sqlite (default), memory, redis, postgres.
	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`

	// SQLitePath is the filesystem path of the local SQLite database file.
	SQLitePath string `env:"SQLITE_PATH" envDefault:"./data/ticketloft.db"`

	// RedisURL configures the redis driver (only read when STORE_DRIVER=redis).
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// DatabaseURL configures the postgres driver (only read when STORE_DRIVER=postgres).
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory
	// used by the postgres driver.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Debug enables verbose structured logging.
	Debug bool `env:"DEBUG" envDefault:"false"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// Driver-conditional requirements cannot be expressed as env tags.
	if cfg.StoreDriver == DriverPostgres && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required when STORE_DRIVER=postgres")
	}

	return cfg, nil
}

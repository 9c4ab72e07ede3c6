// Package config loads the risk worker's runtime configuration from
// environment variables, with a .env file loaded first via godotenv for
// local development.
//
// Configuration Loading Order:
// 1. Load from .env file (if exists)
// 2. Load from environment variables, falling back to defaults
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/riskdesk/fi-risk-engine/internal/errs"
)

// Config holds the risk worker's full runtime configuration.
type Config struct {
	BusEndpoint string // Kafka-compatible broker address, e.g. "localhost:9092"
	BusTopic    string // curve-tick topic name
	BusGroupID  string // consumer group id

	StoreHost string // Redis-compatible store host
	StorePort int    // Redis-compatible store port
	StoreTTL  int    // per-trade risk hash TTL, in seconds

	RefServiceURL string // reference-data service base URL
	RefPageSize   int    // page size for paged portfolio fetch

	LogLevel string // debug, info, warn, error
	WorkerID string // stable id for commit-offset and log correlation

	BumpSize float64 // central-difference rate shock, absolute rate units

	AdminAddr string // admin HTTP surface listen address
}

// Load reads configuration from the environment, loading .env first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	storeTTL := getEnvAsInt("STORE_TTL", 3600)
	storePort := getEnvAsInt("STORE_PORT", 6379)
	refPageSize := getEnvAsInt("REF_PAGE_SIZE", 100)
	bumpSize := getEnvAsFloat("BUMP_SIZE", 0.0001)

	workerID := getEnv("WORKER_ID", "")
	if workerID == "" {
		workerID = randomWorkerID()
	}

	cfg := &Config{
		BusEndpoint:   getEnv("BUS_ENDPOINT", "localhost:9092"),
		BusTopic:      getEnv("BUS_TOPIC", "curve-ticks"),
		BusGroupID:    getEnv("BUS_GROUP_ID", "fi-risk-engine"),
		StoreHost:     getEnv("STORE_HOST", "localhost"),
		StorePort:     storePort,
		StoreTTL:      storeTTL,
		RefServiceURL: getEnv("REF_SERVICE_URL", "http://localhost:8000"),
		RefPageSize:   refPageSize,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		WorkerID:      workerID,
		BumpSize:      bumpSize,
		AdminAddr:     getEnv("ADMIN_ADDR", ":8090"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the invariants the worker cannot safely start without.
func (c *Config) Validate() error {
	if c.BusEndpoint == "" {
		return fmt.Errorf("%w: BUS_ENDPOINT is required", errs.ErrConfig)
	}
	if c.RefServiceURL == "" {
		return fmt.Errorf("%w: REF_SERVICE_URL is required", errs.ErrConfig)
	}
	if c.BumpSize <= 0 {
		return fmt.Errorf("%w: BUMP_SIZE must be positive", errs.ErrConfig)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

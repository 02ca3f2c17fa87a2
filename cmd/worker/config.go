package main

import (
	"log"
	"os"
	"strconv"
)

// Config holds worker-only settings; everything shared comes from the container
type Config struct {
	Concurrency int
	HealthPort  string
}

// loadConfig loads configuration from environment variables
func loadConfig() *Config {
	cfg := &Config{
		Concurrency: 10,
		HealthPort:  getEnv("WORKER_HEALTH_PORT", "9999"),
	}
	if n, err := strconv.Atoi(os.Getenv("WORKER_CONCURRENCY")); err == nil && n > 0 {
		cfg.Concurrency = n
	}

	log.Printf("[Config] Concurrency: %d, Health port: %s", cfg.Concurrency, cfg.HealthPort)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// cmd/worker/startup.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-backend/pkg/container"
)

// HealthChecker performs startup health checks
type HealthChecker struct {
	c *container.Container
}

// startServices performs health checks and logs startup information
func startServices(c *container.Container, cfg *Config) error {
	log.Println("============================================")
	log.Println("🚀 Storefront Worker Starting...")
	log.Println("============================================")

	// ✅ 1. Perform Health Checks
	checker := &HealthChecker{c: c}
	if err := checker.checkAll(); err != nil {
		log.Printf("❌ Health check failed: %v\n", err)
		return err
	}

	// ✅ 2. Start health check endpoint
	go startHealthCheckServer(checker, cfg.HealthPort)

	return nil
}

// checkAll runs all health checks
func (h *HealthChecker) checkAll() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"Redis Connection", h.checkRedis},
		{"PostgreSQL Connection", h.checkDatabase},
	}

	for _, check := range checks {
		log.Printf("⏳ Checking %s...\n", check.name)
		if err := check.fn(); err != nil {
			log.Printf("❌ %s: %v\n", check.name, err)
			return fmt.Errorf("%s failed: %w", check.name, err)
		}
		log.Printf("✓ %s: OK\n", check.name)
	}

	return nil
}

// checkRedis verifies the Redis connection asynq and the sessions share
func (h *HealthChecker) checkRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return h.c.Cache.Ping(ctx)
}

// checkDatabase verifies the attempts store used by the expiry job
func (h *HealthChecker) checkDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return h.c.DB.Ping(ctx)
}

// startHealthCheckServer starts HTTP server for health checks
func startHealthCheckServer(checker *HealthChecker, port string) {
	router := gin.New()
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "UP", "service": "storefront-worker"})
	})
	// Kubernetes readiness probe
	router.GET("/ready", func(ctx *gin.Context) {
		if err := checker.checkAll(); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "NOT_READY", "error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "READY"})
	})

	log.Printf("[Health] Starting health check server on :%s\n", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Printf("[Health] Failed to start: %v\n", err)
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/shared/middleware"
	"storefront-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(c.Config.AllowOrigins),
	)

	// Session middleware configuration
	sessionConfig := middleware.DefaultSessionMiddlewareConfig(
		c.JWTManager,
		c.Config.Session.CookieName,
		c.Config.Session.TTL,
	)
	sessionConfig.CookieDomain = c.Config.Session.CookieDomain
	sessionConfig.CookieSecure = c.Config.Session.CookieSecure
	if c.Config.App.Environment == "development" {
		sessionConfig.CookieSecure = false
	}

	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", healthCheckHandler(c))

		setupStorefrontRoutes(v1, c, sessionConfig)
	}

	return router
}

// ========================================
// STOREFRONT ROUTES (cart, address, checkout)
// ========================================
func setupStorefrontRoutes(v1 *gin.RouterGroup, c *container.Container, sessionConfig middleware.SessionMiddlewareConfig) {
	shop := v1.Group("")
	shop.Use(middleware.SessionMiddleware(sessionConfig))

	c.CartHandler.RegisterRoutes(shop)
	c.AddressHandler.RegisterRoutes(shop)
	c.CheckoutHandler.RegisterRoutes(shop)
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"services":  gin.H{},
		}

		// Check database
		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.Ping(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		// Check redis
		redisStatus := "ok"
		if appCtx.Cache == nil {
			redisStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.Cache.Ping(ctx); err != nil {
				redisStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		health["services"] = gin.H{
			"database":   dbStatus,
			"redis":      redisStatus,
			"workspaces": appCtx.CartRegistry.Len(),
		}

		// Sessions live in Redis, so either store being down fails the check
		statusCode := http.StatusOK
		if dbStatus != "ok" || redisStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}

package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-backend/internal/shared/reqctx"
	"storefront-backend/pkg/logger"
)

// ===================================
// INTERFACES
// ===================================

// SessionTokens signs and verifies the opaque session credential
type SessionTokens interface {
	IssueSessionToken(sessionID string) (string, error)
	ParseSessionToken(token string) (string, error)
}

// ===================================
// MIDDLEWARE CONFIGURATION
// ===================================

type SessionMiddlewareConfig struct {
	Tokens         SessionTokens
	CookieName     string
	CookieDomain   string // "" for current domain
	CookiePath     string
	CookieSecure   bool
	CookieSameSite http.SameSite
	MaxAge         time.Duration
}

// DefaultSessionMiddlewareConfig returns secure defaults
func DefaultSessionMiddlewareConfig(tokens SessionTokens, cookieName string, maxAge time.Duration) SessionMiddlewareConfig {
	return SessionMiddlewareConfig{
		Tokens:         tokens,
		CookieName:     cookieName,
		CookiePath:     "/",
		CookieSecure:   true,
		CookieSameSite: http.SameSiteLaxMode,
		MaxAge:         maxAge,
	}
}

// ===================================
// SESSION MIDDLEWARE
// ===================================

// SessionMiddleware resolves the shopper's session credential and attaches a
// reqctx.Scope to the request context.
//
// Flow:
// 1. Read the signed credential cookie
// 2. Valid → reuse its session id
// 3. Missing or invalid → new session id, new cookie
// 4. Attach scope (session id, request id, scoped logger)
func SessionMiddleware(config SessionMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		fresh := false

		// STEP 1-2: existing credential
		sessionID := ""
		if raw, err := c.Cookie(config.CookieName); err == nil && raw != "" {
			if sid, err := config.Tokens.ParseSessionToken(raw); err == nil {
				sessionID = sid
			}
		}

		// STEP 3: issue a new one
		if sessionID == "" {
			sessionID = uuid.New().String()
			token, err := config.Tokens.IssueSessionToken(sessionID)
			if err != nil {
				logger.Error("failed to issue session token", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   gin.H{"code": "SESSION_ISSUE_FAILED", "message": "Could not start a session"},
				})
				return
			}
			setSessionCookie(c, token, config)
			fresh = true
		}

		// STEP 4: request scope
		requestID := c.GetString(ContextKeyRequestID)
		scope := &reqctx.Scope{
			SessionID:    sessionID,
			RequestID:    requestID,
			FreshSession: fresh,
			Logger: logger.With(map[string]interface{}{
				"request_id": requestID,
				"session_id": sessionID,
			}),
		}
		c.Request = c.Request.WithContext(reqctx.With(c.Request.Context(), scope))

		c.Next()
	}
}

func setSessionCookie(c *gin.Context, token string, config SessionMiddlewareConfig) {
	c.SetSameSite(config.CookieSameSite)
	c.SetCookie(
		config.CookieName,
		token,
		int(config.MaxAge.Seconds()),
		config.CookiePath,
		config.CookieDomain,
		config.CookieSecure,
		true, // httpOnly
	)
}

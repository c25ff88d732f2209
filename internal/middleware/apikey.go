package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	headerAPIKey = "X-API-Key"
	headerAuth   = "Authorization"
	bearerPrefix = "Bearer "
)

// APIKeyAuth guards the admin endpoints (user verification) with static
// API keys.
type APIKeyAuth struct {
	apiKeys map[string]bool
	log     *zap.Logger
}

// NewAPIKeyAuth creates the API key middleware. With no keys configured,
// all requests are rejected.
func NewAPIKeyAuth(apiKeys []string, log *zap.Logger) *APIKeyAuth {
	if log == nil {
		log = zap.NewNop()
	}

	keyMap := make(map[string]bool, len(apiKeys))
	for _, key := range apiKeys {
		if key != "" {
			keyMap[key] = true
		}
	}

	return &APIKeyAuth{apiKeys: keyMap, log: log}
}

// Middleware returns a gin handler that validates the API key from the
// X-API-Key header or an Authorization: Bearer header.
func (a *APIKeyAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.isValidAPIKey(a.extractAPIKey(c)) {
			a.log.Warn("unauthorized admin request",
				zap.String("path", c.Request.URL.Path),
				zap.String("remote_addr", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (a *APIKeyAuth) extractAPIKey(c *gin.Context) string {
	if apiKey := c.GetHeader(headerAPIKey); apiKey != "" {
		return apiKey
	}
	authHeader := c.GetHeader(headerAuth)
	if strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimPrefix(authHeader, bearerPrefix)
	}
	return ""
}

// isValidAPIKey uses constant-time comparison to prevent timing attacks.
func (a *APIKeyAuth) isValidAPIKey(providedKey string) bool {
	if providedKey == "" || len(a.apiKeys) == 0 {
		return false
	}
	for validKey := range a.apiKeys {
		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(validKey)) == 1 {
			return true
		}
	}
	return false
}

package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"clinic-booking/internal/pkg/config"
	"clinic-booking/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	jwtService *jwt.Service
	voiceCfg   config.VoiceConfig
}

const ctxClientIDKey = "client_id"

func NewAuthMiddleware(jwtService *jwt.Service, cfg config.Config) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		voiceCfg:   cfg.Voice,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(authHeader[len("Bearer "):])
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			c.Abort()
			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ctxClientIDKey, claims.ClientID)
		c.Next()
	}
}

// RequireVoiceSecret guards the voice webhook with the platform's shared
// secret header.
func (m *AuthMiddleware) RequireVoiceSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.GetHeader("X-Voice-Secret")
		if subtle.ConstantTimeCompare([]byte(secret), []byte(m.voiceCfg.WebhookSecret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid webhook secret",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func GetClientID(c *gin.Context) (string, bool) {
	value, exists := c.Get(ctxClientIDKey)
	if !exists {
		return "", false
	}
	clientID, ok := value.(string)
	return clientID, ok
}

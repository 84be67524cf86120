package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// WebhookAuth rejects event pushes that don't carry the configured
// bearer token. An empty token disables the check.
func WebhookAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token != "" && c.GetHeader("Authorization") != "Bearer "+token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

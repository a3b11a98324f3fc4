package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the client's API key
const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware validates the X-API-Key header against key.
// An empty key leaves the API open.
func APIKeyMiddleware(key string) gin.HandlerFunc {
	if key == "" {
		return func(c *gin.Context) { c.Next() }
	}
	keyBytes := []byte(key)

	return func(c *gin.Context) {
		got := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), keyBytes) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}

package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// CacheControl marks responses cacheable for maxAgeSeconds, usually uploaded photos.
// Uploaded files get UUID names, so they are also immutable.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", maxAgeSeconds))
		c.Next()
	}
}

// NoStore forbids caching, for responses carrying credentials such as ID-card QR codes.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}

package httpapi

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// accessLog logs one line per request: method, path, status, latency.
func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.Printf("HTTP %s %s status=%d latency=%s", c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

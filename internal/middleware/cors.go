package middleware

import (
	"net/http"
	"strings"

	"chat-app-api/internal/config"

	"github.com/gin-gonic/gin"
)

// CORS allows the configured frontend origin to call the API.
func CORS(app config.App) gin.HandlerFunc {
	methods := strings.Join(append(app.Methods(), http.MethodOptions), ", ")
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", app.CORSOrigin)
		// Browsers refuse credentials with a wildcard origin.
		if app.CORSOrigin != "*" {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", methods)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

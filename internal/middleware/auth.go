package middleware

import (
	"net/http"

	"chat-app-api/internal/auth"
	"chat-app-api/internal/realtime"

	"github.com/gin-gonic/gin"
)

// ExtractToken reads the credential from the Authorization header, falling
// back to the "token" query parameter for browsers opening a WebSocket,
// where custom headers cannot be set.
func ExtractToken(c *gin.Context) string {
	if token := auth.BearerToken(c.GetHeader("Authorization")); token != "" {
		return token
	}
	return c.Query("token")
}

// JWTAuthMiddleware verifies the request token and stores the identity in
// the context under "user_id", "username" and "name".
func JWTAuthMiddleware(verifier realtime.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
				"code":  realtime.ErrorCodeAuth,
			})
			return
		}

		identity, err := verifier.VerifyToken(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
				"code":  realtime.ErrorCodeAuth,
			})
			return
		}

		c.Set("user_id", identity.ID)
		c.Set("username", identity.AccountName)
		c.Set("name", identity.DisplayName)

		c.Next()
	}
}

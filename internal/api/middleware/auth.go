package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/topalbums/internal/auth"
	"github.com/amiyamandal-dev/topalbums/pkg/response"
)

// AuthMiddleware creates JWT authentication middleware. With a nil manager
// every request is let through.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtManager == nil {
			c.Next()
			return
		}

		// Get token from Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Missing authorization header")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("subject", claims.Subject)

		c.Next()
	}
}

// GetSubject retrieves the token subject from the request context
func GetSubject(c *gin.Context) string {
	subject, _ := c.Get("subject")
	if subject == nil {
		return ""
	}
	return subject.(string)
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole checks the role set by JWTMiddleware.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return RequireAnyRole(requiredRole)
}

// RequireAnyRole checks that the token carries one of roles.
func RequireAnyRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := GetRole(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error":          "Insufficient permissions",
			"required_roles": roles,
		})
		c.Abort()
	}
}

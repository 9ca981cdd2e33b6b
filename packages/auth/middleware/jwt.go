package middleware

import (
	"net/http"
	"strings"

	"tennis-ledger-api/packages/auth/utils"

	"github.com/gin-gonic/gin"
)

const (
	subjectKey = "subject"
	roleKey    = "role"
)

// JWTMiddleware rejects requests without a valid "Authorization: Bearer" token
// and stores its subject and role on the context.
func JWTMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(secret, tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(subjectKey, claims.Subject)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

func GetSubject(c *gin.Context) (string, bool) {
	subject := c.GetString(subjectKey)
	return subject, subject != ""
}

func GetRole(c *gin.Context) (string, bool) {
	role := c.GetString(roleKey)
	return role, role != ""
}

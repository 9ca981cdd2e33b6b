package auth

import (
	"time"

	"tennis-ledger-api/packages/auth/middleware"
	"tennis-ledger-api/packages/auth/models"
	"tennis-ledger-api/packages/auth/utils"

	"github.com/gin-gonic/gin"
)

type Module struct {
	secret []byte
}

func NewModule(secret string) *Module {
	return &Module{
		secret: []byte(secret),
	}
}

func (m *Module) JWTMiddleware() gin.HandlerFunc {
	return middleware.JWTMiddleware(m.secret)
}

// AdminOnly returns the chain guarding admin routes.
func (m *Module) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.JWTMiddleware(),
		middleware.RequireRole(models.RoleAdmin),
	}
}

func (m *Module) GenerateToken(subject, role string, ttl time.Duration) (string, error) {
	return utils.GenerateToken(m.secret, subject, role, ttl)
}

func GetSubject(c *gin.Context) (string, bool) {
	return middleware.GetSubject(c)
}

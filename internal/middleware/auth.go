package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/14kear/siteVoting/internal/domain/models"
)

const (
	CtxUserEmail = "userEmail"
	CtxIDToken   = "idToken"
)

type IdentityProvider interface {
	SignIn(ctx context.Context, credential string) (models.Identity, error)
}

type AuthMiddleware struct {
	identity IdentityProvider
}

func NewAuthMiddleware(identity IdentityProvider) *AuthMiddleware {
	return &AuthMiddleware{identity: identity}
}

// Middleware проверяет Bearer ID token и кладёт email в контекст.
func (m *AuthMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		idToken := extractTokenFromHeader(c.GetHeader("Authorization"))
		if idToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing id token"})
			return
		}

		identity, err := m.identity.SignIn(c.Request.Context(), idToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(CtxUserEmail, identity.Email)
		c.Set(CtxIDToken, idToken)
		c.Next()
	}
}

func extractTokenFromHeader(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

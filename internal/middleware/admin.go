package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/14kear/siteVoting/internal/services/auth"
)

const AdminKeyHeader = "X-Admin-Key"

type AdminChecker interface {
	Check(key string) error
}

func AdminOnly(admin AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := admin.Check(c.GetHeader(AdminKeyHeader))
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, auth.ErrAdminDisabled):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin api is disabled"})
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
		}
	}
}

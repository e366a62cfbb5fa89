package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
	"github.com/noah-isme/credit-tracker-api/pkg/response"
)

// RequirePermission allows admins holding any of the permission codes.
func RequirePermission(perms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := adminIdentity(c)
		if !ok {
			return
		}
		for _, perm := range perms {
			if identity.HasPermission(perm) {
				c.Next()
				return
			}
		}
		response.Error(c, appErrors.Clone(appErrors.ErrAccessDenied, "missing required permission"))
		c.Abort()
	}
}

// RequireRole allows admins with one of the role codes.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := adminIdentity(c)
		if !ok {
			return
		}
		if identity.HasRole(roles...) {
			c.Next()
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrAccessDenied, "missing required role"))
		c.Abort()
	}
}

func adminIdentity(c *gin.Context) (*models.Identity, bool) {
	identity, err := CurrentIdentity(c)
	if err != nil {
		response.Error(c, err)
		c.Abort()
		return nil, false
	}
	if !identity.IsAdmin() {
		response.Error(c, appErrors.ErrWrongIdentityType)
		c.Abort()
		return nil, false
	}
	return identity, true
}

package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/credit-tracker-api/internal/models"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
	"github.com/noah-isme/credit-tracker-api/pkg/response"
)

// ContextIdentityKey is the gin context key storing the resolved caller.
const ContextIdentityKey = "identity"

// CallerResolver verifies an access token and the account behind it. An empty
// expected type accepts any identity kind.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, token string, expected models.IdentityType) (*models.Identity, error)
}

// TokenFromRequest returns the bearer token from the Authorization header,
// falling back to the auth cookie. A malformed header is returned as-is so it
// fails verification instead of reading as absent.
func TokenFromRequest(c *gin.Context, cookieName string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return strings.TrimSpace(header)
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

// Authenticate requires a valid token of the expected identity type.
func Authenticate(resolver CallerResolver, cookieName string, expected models.IdentityType) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := resolver.ResolveCaller(c.Request.Context(), TokenFromRequest(c, cookieName), expected)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextIdentityKey, identity)
		c.Next()
	}
}

// CurrentIdentity returns the caller stored by Authenticate.
func CurrentIdentity(c *gin.Context) (*models.Identity, error) {
	value, exists := c.Get(ContextIdentityKey)
	if !exists {
		return nil, appErrors.ErrMissingToken
	}
	identity, ok := value.(*models.Identity)
	if !ok || identity == nil {
		return nil, appErrors.ErrMissingToken
	}
	return identity, nil
}

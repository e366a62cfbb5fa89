package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/credit-tracker-api/internal/middleware"
	"github.com/noah-isme/credit-tracker-api/internal/models"
	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

func identityFromContext(c *gin.Context) (*models.Identity, error) {
	return middleware.CurrentIdentity(c)
}

// optionalInt parses an integer query parameter. An absent value yields nil.
func optionalInt(c *gin.Context, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid "+key)
	}
	return &value, nil
}

// optionalBool parses a boolean query parameter. An absent value yields nil.
func optionalBool(c *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid "+key)
	}
	return &value, nil
}

// pagination reads page and limit, ignoring malformed values.
func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

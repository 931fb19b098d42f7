package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/response"
)

// UUIDParams rejects the request with 400 unless every named path parameter
// is a canonical hyphenated UUID.
func UUIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			raw := c.Param(name)
			if _, err := uuid.Parse(raw); err != nil || len(raw) != 36 {
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, name+" must be a valid UUID"))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

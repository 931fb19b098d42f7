package requestid

import (
	contrib "github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const contextKey = "request_id"

// Middleware tags each request with an X-Request-ID, reusing the caller's
// header when present, and keeps the ID on the gin context for logging.
func Middleware() gin.HandlerFunc {
	return contrib.New(
		contrib.WithGenerator(uuid.NewString),
		contrib.WithHandler(func(c *gin.Context, requestID string) {
			c.Set(contextKey, requestID)
		}),
	)
}

// Value returns the request ID of the current request.
func Value(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return contrib.Get(c)
}

package cors

import (
	"strings"
	"time"

	contrib "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New returns CORS handling for the marketing site origins. An empty list
// allows any origin, which is only expected in development. Disallowed
// origins are rejected with 403.
func New(allowedOrigins []string) gin.HandlerFunc {
	cfg := contrib.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}
	if len(allowedOrigins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		originSet := make(map[string]struct{}, len(allowedOrigins))
		for _, origin := range allowedOrigins {
			originSet[normalize(origin)] = struct{}{}
		}
		cfg.AllowOriginFunc = func(origin string) bool {
			_, ok := originSet[normalize(origin)]
			return ok
		}
	}
	handler := contrib.New(cfg)

	return func(c *gin.Context) {
		// Stripe calls the webhook server to server.
		if strings.HasSuffix(c.Request.URL.Path, "/payments/webhook") {
			c.Next()
			return
		}
		handler(c)
	}
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}

package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit limits requests per client IP. rate uses the limiter format, e.g. "10-M".
func RateLimit(rate string) (gin.HandlerFunc, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rate, err)
	}

	store := memory.NewStore()
	instance := limiter.New(store, parsed)

	return mgin.NewMiddleware(instance), nil
}

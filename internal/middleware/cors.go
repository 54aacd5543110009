package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var defaultAllowedOrigins = []string{
	"http://localhost:3000", // Shop admin
	"http://localhost:4200", // Back office
}

// CORS returns the CORS middleware. allowedOrigins is a comma-separated list;
// the local defaults are used when it is empty.
func CORS(allowedOrigins string) gin.HandlerFunc {
	origins := defaultAllowedOrigins
	if allowedOrigins != "" {
		origins = nil
		for _, origin := range strings.Split(allowedOrigins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}

	config := cors.Config{
		AllowOrigins:     origins,
		AllowWildcard:    true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-User-ID", "X-Requested-With", "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	return cors.New(config)
}

package middleware

import (
	"github.com/gin-gonic/gin"
)

const devUserID = "00000000-0000-0000-0000-000000000001"

// DevelopmentAuthMiddleware is a simple auth middleware for development
func DevelopmentAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			userID = devUserID
		}

		// RBAC middleware reads staff_id before user_id
		c.Set("userId", userID)
		c.Set("user_id", userID)
		c.Set("staff_id", userID)
		c.Next()
	}
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Admin only lets through requests whose token carries the admin flag.
// It must run after Authenticate.
func Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdminVal, exists := c.Get(IsAdminKey)
		if !exists {
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		isAdmin, ok := isAdminVal.(bool)
		if !ok {
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}

		if !isAdmin {
			abort(c, http.StatusForbidden, "forbidden")
			return
		}

		c.Next()
	}
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	admingate "github.com/thestare/admingate"
)

// GinGuard is the gin adapter for [Guard]. Denied requests are aborted with
// a 401 JSON body for API clients or a 303 redirect to signInPath for
// browsers.
func GinGuard(authority *admingate.Authority, signInPath string) gin.HandlerFunc {
	if signInPath == "" {
		signInPath = "/signin"
	}

	return func(c *gin.Context) {
		ctx := admingate.WithClientIP(c.Request.Context(), c.ClientIP())
		c.Request = c.Request.WithContext(ctx)

		if authority == nil || !authority.IsAdmin(ctx) {
			if wantsJSON(c.Request) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			c.Redirect(http.StatusSeeOther, signInPath)
			c.Abort()
			return
		}

		c.Next()
	}
}

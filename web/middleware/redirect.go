package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RedirectMiddleware maps the capitalized routes of the previous web host
// onto the current ones.
func RedirectMiddleware(basePath string) gin.HandlerFunc {
	redirects := map[string]string{
		"Articles":         "articles",
		"Admin":            "admin",
		"Account/Login":    "login",
		"Account/Logout":   "logout",
		"Account/Register": "register",
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for from, to := range redirects {
			from, to = basePath+from, basePath+to

			rest, ok := strings.CutPrefix(path, from)
			if ok && (rest == "" || rest[0] == '/') {
				newPath := to + rest

				c.Redirect(http.StatusMovedPermanently, newPath)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

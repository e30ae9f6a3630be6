package middleware

import (
	"net/http"

	"github.com/blogblazor/blog/database/model"

	"github.com/gin-gonic/gin"
)

// RoleRequired lets the request through when the caller holds any of roles.
// Anonymous callers get 401, signed-in callers without a matching role 403.
func RoleRequired(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		held := CurrentRoles(c)
		for _, r := range roles {
			if r != model.RoleOther && model.HasRole(held, r) {
				c.Next()
				return
			}
		}
		c.AbortWithStatus(http.StatusForbidden)
	}
}

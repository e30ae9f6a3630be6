package middleware

import (
	"net/http"
	"strings"

	"github.com/blogblazor/blog/logger"
	"github.com/blogblazor/blog/web/service"

	"github.com/gin-gonic/gin"
)

// AuditMiddleware records every successful state-changing request made by a
// signed-in user.
func AuditMiddleware(auditService *service.AuditLogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			return
		}
		user := CurrentUser(c)
		if user == nil || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		route := c.FullPath()
		if route == "" {
			return
		}

		action, resource, resourceID := extractAction(c, route)
		if resource == "" {
			return
		}
		details := map[string]any{
			"method": c.Request.Method,
			"route":  route,
			"status": c.Writer.Status(),
		}
		if rid := c.GetString(RequestIDHeader); rid != "" {
			details["requestId"] = rid
		}

		err := auditService.LogAction(c.Request.Context(), service.AuditEntry{
			UserID:     user.Id,
			Username:   user.Username,
			Action:     action,
			Resource:   resource,
			ResourceID: resourceID,
			IP:         c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
			Details:    details,
		})
		if err != nil {
			logger.Warning("Failed to log audit action:", err)
		}
	}
}

// extractAction derives the audit action, resource and id from the matched
// route pattern. Routes outside users and articles yield an empty resource.
func extractAction(c *gin.Context, route string) (action, resource, resourceID string) {
	switch {
	case strings.HasSuffix(route, "/ban"):
		action = "BAN"
	case strings.HasSuffix(route, "/contributor"):
		action = "ROLE"
	case strings.HasSuffix(route, "/delete") || c.Request.Method == http.MethodDelete:
		action = "DELETE"
	case strings.HasSuffix(route, "/new") || strings.HasSuffix(route, "/register"):
		action = "CREATE"
	case strings.HasSuffix(route, "/edit") || strings.HasSuffix(route, "/:username") || c.Request.Method == http.MethodPut:
		action = "UPDATE"
	default:
		action = c.Request.Method
	}

	switch {
	case strings.Contains(route, "/users"):
		resource = "user"
		resourceID = c.Param("username")
	case strings.Contains(route, "/articles"):
		resource = "article"
		resourceID = c.Param("id")
	}
	return action, resource, resourceID
}

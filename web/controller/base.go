// Package controller provides the HTTP handlers of the blog: sign-in and
// registration, the article screens, the admin screens and JSON API, and the
// public REST API.
package controller

import (
	"net/http"

	"github.com/blogblazor/blog/web/locale"
	"github.com/blogblazor/blog/web/middleware"

	"github.com/gin-gonic/gin"
)

// BaseController provides common functionality for all controllers, including authentication checks.
type BaseController struct{}

// checkLogin is a middleware that verifies user authentication and handles unauthorized access.
func (a *BaseController) checkLogin(c *gin.Context) {
	if middleware.CurrentUser(c) == nil {
		if isAjax(c) {
			pureJsonMsg(c, http.StatusUnauthorized, false, I18nWeb(c, "pages.login.loginAgain"))
		} else {
			c.Redirect(http.StatusSeeOther, c.GetString("base_path")+"login")
		}
		c.Abort()
	} else {
		c.Next()
	}
}

// I18nWeb retrieves an internationalized message for the web interface based on the current locale.
func I18nWeb(c *gin.Context, name string, params ...string) string {
	return locale.I18n(locale.FromContext(c), name, params...)
}

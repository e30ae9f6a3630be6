package controller

import (
	"net/http"
	"strings"

	"github.com/blogblazor/blog/database/model"
	"github.com/blogblazor/blog/logger"
	"github.com/blogblazor/blog/web/entity"
	"github.com/blogblazor/blog/web/middleware"
	"github.com/blogblazor/blog/web/service"
	"github.com/blogblazor/blog/web/session"

	"github.com/gin-gonic/gin"
)

// UserAdminController lets admins list users, toggle the Contributor role,
// ban users and edit profiles, both as HTML screens and as a JSON API.
type UserAdminController struct {
	BaseController

	adminService *service.AdminService
}

// NewUserAdminController registers the screens under /admin on g and the
// JSON API under /admin on api.
func NewUserAdminController(g *gin.RouterGroup, api *gin.RouterGroup, admin *service.AdminService) *UserAdminController {
	a := &UserAdminController{adminService: admin}
	a.initRouter(g, api)
	return a
}

func (a *UserAdminController) initRouter(g *gin.RouterGroup, api *gin.RouterGroup) {
	screens := g.Group("/admin")
	screens.Use(a.checkLogin, middleware.RoleRequired(model.RoleAdmin))
	{
		screens.GET("/users", a.usersPage)
		screens.GET("/users/:username", a.profilePage)
		screens.POST("/users/:username", a.saveProfile)
		screens.POST("/users/:username/contributor", a.setContributor)
		screens.GET("/users/:username/ban", a.banPage)
		screens.POST("/users/:username/ban", a.ban)
		screens.GET("/logs", a.logsPage)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.RoleRequired(model.RoleAdmin))
	{
		admin.GET("/users", a.list)
		admin.GET("/users/:username", a.details)
		admin.POST("/users/:username", a.saveProfileJSON)
		admin.POST("/users/:username/contributor", a.setContributorJSON)
		admin.POST("/users/:username/ban", a.banJSON)
		admin.GET("/logs/:count", a.getLogs)
	}
}

func (a *UserAdminController) usersPage(c *gin.Context) {
	html(c, "users.html", "pages.users.title", gin.H{
		"users":           a.adminService.ListUsersWithRoles(c.Request.Context()),
		"contributorRole": model.RoleContributor,
	})
}

func (a *UserAdminController) profilePage(c *gin.Context) {
	user, ok := a.adminService.GetUserDetails(c.Request.Context(), c.Param("username"))
	if !ok {
		htmlStatus(c, http.StatusNotFound, "not_found.html", "pages.notFound.title", nil)
		return
	}
	a.renderProfile(c, user, "")
}

func (a *UserAdminController) renderProfile(c *gin.Context, user *model.User, errKey string) {
	data := gin.H{
		"profile": user,
		"form": entity.ProfileForm{
			FirstName:        user.FirstName,
			LastName:         user.LastName,
			Email:            user.Email,
			ConcurrencyStamp: user.ConcurrencyStamp,
		},
		"roles_of_user": a.adminService.RolesOf(c.Request.Context(), user.Username),
	}
	if errKey != "" {
		data["error"] = I18nWeb(c, errKey)
	}
	html(c, "user_profile.html", "pages.profile.title", data)
}

func (a *UserAdminController) saveProfile(c *gin.Context) {
	username := c.Param("username")
	var form entity.ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		session.AddFlash(c, I18nWeb(c, "pages.login.toasts.invalidFormData"))
		redirect(c, "admin/users/"+username)
		return
	}

	if a.adminService.SaveUserProfile(c.Request.Context(), profileFromForm(username, form)) {
		session.AddFlash(c, I18nWeb(c, "pages.profile.saved"))
		redirect(c, "admin/users")
		return
	}

	// re-read so the form carries the current stamp
	current, ok := a.adminService.GetUserDetails(c.Request.Context(), username)
	if !ok {
		session.AddFlash(c, I18nWeb(c, "pages.users.notFound"))
		redirect(c, "admin/users")
		return
	}
	a.renderProfile(c, current, "pages.profile.conflict")
}

func (a *UserAdminController) setContributor(c *gin.Context) {
	var form entity.ContributorForm
	if err := c.ShouldBind(&form); err != nil {
		session.AddFlash(c, I18nWeb(c, "pages.login.toasts.invalidFormData"))
		redirect(c, "admin/users")
		return
	}
	username := c.Param("username")
	if a.adminService.SetContributorRole(c.Request.Context(), username, form.Enabled) {
		session.AddFlash(c, I18nWeb(c, "pages.users.roleUpdated", "user=="+username))
	} else {
		session.AddFlash(c, I18nWeb(c, "pages.users.roleFailed", "user=="+username))
	}
	redirect(c, "admin/users")
}

func (a *UserAdminController) banPage(c *gin.Context) {
	user, ok := a.adminService.GetUserDetails(c.Request.Context(), c.Param("username"))
	if !ok {
		htmlStatus(c, http.StatusNotFound, "not_found.html", "pages.notFound.title", nil)
		return
	}
	html(c, "user_ban.html", "pages.ban.title", gin.H{"profile": user})
}

func (a *UserAdminController) ban(c *gin.Context) {
	username := c.Param("username")
	if a.isSelf(c, username) {
		session.AddFlash(c, I18nWeb(c, "pages.ban.self"))
		redirect(c, "admin/users")
		return
	}
	if a.adminService.BanUser(c.Request.Context(), username) {
		session.AddFlash(c, I18nWeb(c, "pages.ban.done", "user=="+username))
	} else {
		session.AddFlash(c, I18nWeb(c, "pages.ban.failed", "user=="+username))
	}
	redirect(c, "admin/users")
}

func (a *UserAdminController) logsPage(c *gin.Context) {
	count := queryInt(c, "count", 100)
	level := c.DefaultQuery("level", "debug")
	html(c, "logs.html", "pages.logs.title", gin.H{
		"logs":   logger.GetLogs(count, level),
		"level":  level,
		"levels": []string{"debug", "info", "notice", "warning", "error"},
		"count":  count,
	})
}

func (a *UserAdminController) list(c *gin.Context) {
	jsonObj(c, a.adminService.ListUsersWithRoles(c.Request.Context()), nil)
}

func (a *UserAdminController) details(c *gin.Context) {
	user, ok := a.adminService.GetUserDetails(c.Request.Context(), c.Param("username"))
	if !ok {
		pureJsonMsg(c, http.StatusNotFound, false, I18nWeb(c, "pages.users.notFound"))
		return
	}
	jsonObj(c, user, nil)
}

func (a *UserAdminController) saveProfileJSON(c *gin.Context) {
	var form entity.ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.toasts.invalidFormData"), err)
		return
	}
	user := profileFromForm(c.Param("username"), form)
	if !a.adminService.SaveUserProfile(c.Request.Context(), user) {
		pureJsonMsg(c, http.StatusConflict, false, I18nWeb(c, "pages.profile.conflict"))
		return
	}
	jsonMsgObj(c, I18nWeb(c, "pages.profile.saved"), user, nil)
}

func (a *UserAdminController) setContributorJSON(c *gin.Context) {
	var form entity.ContributorForm
	if err := c.ShouldBind(&form); err != nil {
		jsonMsg(c, I18nWeb(c, "pages.login.toasts.invalidFormData"), err)
		return
	}
	username := c.Param("username")
	ok := a.adminService.SetContributorRole(c.Request.Context(), username, form.Enabled)
	if !ok {
		pureJsonMsg(c, http.StatusOK, false, I18nWeb(c, "pages.users.roleFailed", "user=="+username))
		return
	}
	pureJsonMsg(c, http.StatusOK, true, I18nWeb(c, "pages.users.roleUpdated", "user=="+username))
}

func (a *UserAdminController) banJSON(c *gin.Context) {
	username := c.Param("username")
	if a.isSelf(c, username) {
		pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "pages.ban.self"))
		return
	}
	ok := a.adminService.BanUser(c.Request.Context(), username)
	if !ok {
		pureJsonMsg(c, http.StatusOK, false, I18nWeb(c, "pages.ban.failed", "user=="+username))
		return
	}
	pureJsonMsg(c, http.StatusOK, true, I18nWeb(c, "pages.ban.done", "user=="+username))
}

// getLogs retrieves the application logs based on count and level filters.
func (a *UserAdminController) getLogs(c *gin.Context) {
	count, ok := paramInt(c, "count")
	if !ok || count <= 0 {
		count = 100
	}
	jsonObj(c, logger.GetLogs(count, c.DefaultQuery("level", "debug")), nil)
}

func (a *UserAdminController) isSelf(c *gin.Context, username string) bool {
	user := middleware.CurrentUser(c)
	return user != nil && strings.EqualFold(user.Username, username)
}

func profileFromForm(username string, form entity.ProfileForm) *model.User {
	return &model.User{
		Username:         username,
		FirstName:        strings.TrimSpace(form.FirstName),
		LastName:         strings.TrimSpace(form.LastName),
		Email:            strings.TrimSpace(form.Email),
		ConcurrencyStamp: form.ConcurrencyStamp,
	}
}

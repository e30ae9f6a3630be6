package controller

import (
	"errors"
	"net/http"
	"strings"
	"text/template"

	"github.com/blogblazor/blog/caching"
	"github.com/blogblazor/blog/logger"
	"github.com/blogblazor/blog/util/crypto"
	"github.com/blogblazor/blog/web/entity"
	"github.com/blogblazor/blog/web/middleware"
	"github.com/blogblazor/blog/web/service"
	"github.com/blogblazor/blog/web/session"

	"github.com/gin-gonic/gin"
)

// IndexController handles sign-in, sign-out and registration.
type IndexController struct {
	BaseController

	userService   *service.UserService
	auditService  *service.AuditLogService
	loginFailures *caching.Cache
	maxAttempts   int
	sessionMaxAge int
}

// IndexOptions carries what IndexController needs beyond the services.
type IndexOptions struct {
	LoginFailures *caching.Cache
	MaxAttempts   int
	// SessionMaxAge is in minutes; zero keeps a browser session cookie.
	SessionMaxAge int
}

// NewIndexController creates a new IndexController and initializes its routes.
func NewIndexController(g *gin.RouterGroup, users *service.UserService, audit *service.AuditLogService, opts IndexOptions) *IndexController {
	a := &IndexController{
		userService:   users,
		auditService:  audit,
		loginFailures: opts.LoginFailures,
		maxAttempts:   opts.MaxAttempts,
		sessionMaxAge: opts.SessionMaxAge,
	}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/login", a.loginPage)
	g.POST("/login", middleware.LoginThrottle(a.loginFailures, a.maxAttempts), a.login)
	g.GET("/logout", a.logout)
	g.POST("/logout", a.logout)
	g.GET("/register", a.registerPage)
	g.POST("/register", a.register)
}

func (a *IndexController) loginPage(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		redirect(c, "/")
		return
	}
	html(c, "login.html", "pages.login.title", nil)
}

func (a *IndexController) loginFailed(c *gin.Context, status int, key string, username string) {
	if isAjax(c) {
		pureJsonMsg(c, status, false, I18nWeb(c, key))
		return
	}
	htmlStatus(c, status, "login.html", "pages.login.title", gin.H{
		"error":    I18nWeb(c, key),
		"username": username,
	})
}

// login handles user authentication and session creation.
func (a *IndexController) login(c *gin.Context) {
	var form entity.LoginForm

	if err := c.ShouldBind(&form); err != nil {
		a.loginFailed(c, http.StatusBadRequest, "pages.login.toasts.invalidFormData", "")
		return
	}
	form.Username = strings.TrimSpace(form.Username)
	if form.Username == "" {
		a.loginFailed(c, http.StatusBadRequest, "pages.login.toasts.emptyUsername", "")
		return
	}
	if form.Password == "" {
		a.loginFailed(c, http.StatusBadRequest, "pages.login.toasts.emptyPassword", form.Username)
		return
	}

	ip := getRemoteIp(c)
	safeUser := template.HTMLEscapeString(form.Username)
	user := a.userService.CheckUser(c.Request.Context(), form.Username, form.Password)
	if user == nil {
		attempts := 0
		if a.loginFailures != nil {
			attempts = a.loginFailures.Increment(middleware.LoginThrottleKey(c.ClientIP()))
		}
		logger.Warningf("wrong username or password: \"%s\", IP: \"%s\", attempt %d", safeUser, ip, attempts)
		a.audit(c, 0, form.Username, "LOGIN_FAILED")
		a.loginFailed(c, http.StatusOK, "pages.login.toasts.wrongUsernameOrPassword", form.Username)
		return
	}

	if a.loginFailures != nil {
		a.loginFailures.Reset(middleware.LoginThrottleKey(c.ClientIP()))
	}
	if err := a.startSession(c, user.Id, user.Username); err != nil {
		logger.Warning("Unable to save session: ", err)
		a.loginFailed(c, http.StatusInternalServerError, "pages.login.toasts.sessionFailed", form.Username)
		return
	}

	logger.Infof("%s logged in successfully, Ip Address: %s", safeUser, ip)
	a.audit(c, user.Id, user.Username, "LOGIN")
	if isAjax(c) {
		jsonMsg(c, I18nWeb(c, "pages.login.toasts.successLogin"), nil)
		return
	}
	redirect(c, "/")
}

func (a *IndexController) startSession(c *gin.Context, id int, username string) error {
	if a.sessionMaxAge > 0 {
		if err := session.SetMaxAge(c, a.sessionMaxAge*60); err != nil {
			return err
		}
	}
	return session.SetLoginUser(c, session.LoginUser{Id: id, Username: username})
}

// logout handles user logout by clearing the session and redirecting to the home page.
func (a *IndexController) logout(c *gin.Context) {
	if user := middleware.CurrentUser(c); user != nil {
		logger.Infof("%s logged out successfully", user.Username)
		a.audit(c, user.Id, user.Username, "LOGOUT")
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("Unable to save session after clearing:", err)
	}
	redirect(c, "/")
}

func (a *IndexController) registerPage(c *gin.Context) {
	html(c, "register.html", "pages.register.title", gin.H{"form": entity.RegisterForm{}})
}

func (a *IndexController) register(c *gin.Context) {
	var form entity.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		a.registerFailed(c, form, "pages.login.toasts.invalidFormData")
		return
	}
	if form.Password != form.ConfirmPassword {
		a.registerFailed(c, form, "pages.register.passwordMismatch")
		return
	}

	user, err := a.userService.Register(c.Request.Context(), service.RegisterRequest{
		Email:     form.Email,
		Password:  form.Password,
		FirstName: form.FirstName,
		LastName:  form.LastName,
	})
	if err != nil {
		a.registerFailed(c, form, registerErrorKey(err))
		return
	}

	a.audit(c, user.Id, user.Username, "REGISTER")
	if err := a.startSession(c, user.Id, user.Username); err != nil {
		logger.Warning("Unable to save session: ", err)
		redirect(c, "/login")
		return
	}
	redirect(c, "/")
}

func (a *IndexController) registerFailed(c *gin.Context, form entity.RegisterForm, key string) {
	form.Password, form.ConfirmPassword = "", ""
	htmlStatus(c, http.StatusOK, "register.html", "pages.register.title", gin.H{
		"form":  form,
		"error": I18nWeb(c, key),
	})
}

func registerErrorKey(err error) string {
	switch {
	case errors.Is(err, service.ErrUserExists):
		return "pages.register.exists"
	case errors.Is(err, crypto.ErrPasswordTooShort):
		return "pages.register.passwordTooShort"
	case errors.Is(err, crypto.ErrPasswordNoUpper),
		errors.Is(err, crypto.ErrPasswordNoLower),
		errors.Is(err, crypto.ErrPasswordNoDigit),
		errors.Is(err, crypto.ErrPasswordNoNonAlnum):
		return "pages.register.passwordWeak"
	default:
		return "pages.register.invalid"
	}
}

func (a *IndexController) audit(c *gin.Context, userID int, username, action string) {
	if a.auditService == nil {
		return
	}
	err := a.auditService.LogAction(c.Request.Context(), service.AuditEntry{
		UserID:    userID,
		Username:  username,
		Action:    action,
		Resource:  "session",
		IP:        getRemoteIp(c),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		logger.Warning("Failed to log audit action:", err)
	}
}

package controller

import (
	"errors"
	"net/http"

	"github.com/blogblazor/blog/caching"
	"github.com/blogblazor/blog/logger"
	"github.com/blogblazor/blog/web/entity"
	"github.com/blogblazor/blog/web/middleware"
	"github.com/blogblazor/blog/web/service"

	"github.com/gin-gonic/gin"
)

// APIController serves the public REST API read by the front-end tier.
type APIController struct {
	articleService *service.ArticleService
	authService    *service.AuthService
	loginFailures  *caching.Cache
}

// NewAPIController creates a new APIController instance and initializes its routes.
func NewAPIController(g *gin.RouterGroup, articles *service.ArticleService, auth *service.AuthService, loginFailures *caching.Cache, maxAttempts int) *APIController {
	a := &APIController{
		articleService: articles,
		authService:    auth,
		loginFailures:  loginFailures,
	}
	a.initRouter(g, maxAttempts)
	return a
}

func (a *APIController) initRouter(g *gin.RouterGroup, maxAttempts int) {
	api := g.Group("/api")
	api.Use(middleware.CORS())

	api.GET("/articles", a.getArticles)
	api.GET("/articles/:id", a.getArticle)
	api.POST("/auth/token", middleware.LoginThrottle(a.loginFailures, maxAttempts), a.issueToken)

	// preflight requests only reach CORS when a route matches
	preflight := func(c *gin.Context) {}
	api.OPTIONS("/articles", preflight)
	api.OPTIONS("/articles/:id", preflight)
	api.OPTIONS("/auth/token", preflight)
}

// getArticles returns every stored article, scheduled and expired ones
// included.
func (a *APIController) getArticles(c *gin.Context) {
	c.JSON(http.StatusOK, a.articleService.ListAllArticles(c.Request.Context()))
}

// getArticle returns one article, or 404 with an empty body.
func (a *APIController) getArticle(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	article, ok := a.articleService.GetArticleById(c.Request.Context(), id)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (a *APIController) issueToken(c *gin.Context) {
	var form entity.LoginForm
	if err := c.ShouldBind(&form); err != nil || form.Username == "" || form.Password == "" {
		pureJsonMsg(c, http.StatusBadRequest, false, I18nWeb(c, "pages.login.toasts.invalidFormData"))
		return
	}

	token, err := a.authService.IssueToken(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			if a.loginFailures != nil {
				a.loginFailures.Increment(middleware.LoginThrottleKey(c.ClientIP()))
			}
			pureJsonMsg(c, http.StatusUnauthorized, false, I18nWeb(c, "pages.login.toasts.wrongUsernameOrPassword"))
			return
		}
		logger.Warning("issue token failed:", err)
		pureJsonMsg(c, http.StatusInternalServerError, false, I18nWeb(c, "fail"))
		return
	}
	if a.loginFailures != nil {
		a.loginFailures.Reset(middleware.LoginThrottleKey(c.ClientIP()))
	}
	jsonObj(c, gin.H{"token": token, "tokenType": "Bearer"}, nil)
}

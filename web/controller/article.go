package controller

import (
	"net/http"

	"github.com/blogblazor/blog/database/model"
	"github.com/blogblazor/blog/logger"
	"github.com/blogblazor/blog/web/entity"
	"github.com/blogblazor/blog/web/middleware"
	"github.com/blogblazor/blog/web/service"
	"github.com/blogblazor/blog/web/session"

	"github.com/gin-gonic/gin"
)

// ArticleController serves the public article screens and the authoring
// screens of contributors and admins.
type ArticleController struct {
	BaseController

	articleService *service.ArticleService
}

func NewArticleController(g *gin.RouterGroup, articles *service.ArticleService) *ArticleController {
	a := &ArticleController{articleService: articles}
	a.initRouter(g)
	return a
}

func (a *ArticleController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/articles/:id", a.detail)

	author := g.Group("/articles")
	author.Use(a.checkLogin, middleware.RoleRequired(model.RoleAdmin, model.RoleContributor))

	author.GET("/mine", a.mine)
	author.GET("/new", a.newPage)
	author.POST("/new", a.create)
	author.GET("/:id/edit", a.editPage)
	author.POST("/:id/edit", a.edit)
	author.GET("/:id/delete", a.deletePage)
	author.POST("/:id/delete", a.delete)
}

// index lists the articles whose publish window contains now.
func (a *ArticleController) index(c *gin.Context) {
	html(c, "index.html", "pages.index.title", gin.H{
		"articles": a.articleService.ListVisibleArticles(c.Request.Context()),
	})
}

func (a *ArticleController) detail(c *gin.Context) {
	article, ok := a.find(c)
	if !ok {
		return
	}
	html(c, "article.html", "pages.article.title", gin.H{
		"article": article,
		"canEdit": a.canEdit(c, article.ArticleId),
	})
}

// mine lists the caller's articles. Admins see every article.
func (a *ArticleController) mine(c *gin.Context) {
	ctx := c.Request.Context()
	var articles []model.Article
	if middleware.HasRole(c, model.RoleAdmin) {
		articles = a.articleService.ListAllArticles(ctx)
	} else {
		articles = a.articleService.ListArticlesByContributor(ctx, middleware.CurrentUser(c).Username)
	}
	html(c, "articles_mine.html", "pages.mine.title", gin.H{"articles": articles})
}

func (a *ArticleController) newPage(c *gin.Context) {
	html(c, "article_form.html", "pages.articleForm.newTitle", gin.H{
		"form":   entity.ArticleForm{},
		"action": "articles/new",
	})
}

func (a *ArticleController) create(c *gin.Context) {
	var form entity.ArticleForm
	if err := c.ShouldBind(&form); err != nil {
		a.formFailed(c, form, "articles/new", "pages.login.toasts.invalidFormData")
		return
	}
	article, err := form.ToArticle()
	if err != nil {
		a.formFailed(c, form, "articles/new", "pages.articleForm.invalidDate")
		return
	}
	if key := checkArticle(article); key != "" {
		a.formFailed(c, form, "articles/new", key)
		return
	}

	user := middleware.CurrentUser(c)
	if !a.articleService.CreateArticle(c.Request.Context(), article, user.Username) {
		a.formFailed(c, form, "articles/new", "pages.articleForm.saveFailed")
		return
	}
	logger.Infof("%s created article %d", user.Username, article.ArticleId)
	session.AddFlash(c, I18nWeb(c, "pages.articleForm.created"))
	redirect(c, "articles/mine")
}

func (a *ArticleController) editPage(c *gin.Context) {
	article, ok := a.find(c)
	if !ok {
		return
	}
	if !a.canEdit(c, article.ArticleId) {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	html(c, "article_form.html", "pages.articleForm.editTitle", gin.H{
		"form":    entity.NewArticleForm(article),
		"article": article,
		"action":  "articles/" + c.Param("id") + "/edit",
	})
}

func (a *ArticleController) edit(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	action := "articles/" + c.Param("id") + "/edit"

	var form entity.ArticleForm
	if err := c.ShouldBind(&form); err != nil {
		a.formFailed(c, form, action, "pages.login.toasts.invalidFormData")
		return
	}
	article, err := form.ToArticle()
	if err != nil {
		a.formFailed(c, form, action, "pages.articleForm.invalidDate")
		return
	}
	if key := checkArticle(article); key != "" {
		a.formFailed(c, form, action, key)
		return
	}

	if !a.canEdit(c, id) {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	user := middleware.CurrentUser(c)
	if !a.articleService.EditArticle(c.Request.Context(), id, article, user.Username) {
		a.formFailed(c, form, action, "pages.articleForm.saveFailed")
		return
	}
	logger.Infof("%s edited article %d", user.Username, id)
	session.AddFlash(c, I18nWeb(c, "pages.articleForm.saved"))
	redirect(c, "articles/mine")
}

func (a *ArticleController) deletePage(c *gin.Context) {
	article, ok := a.find(c)
	if !ok {
		return
	}
	if !a.canEdit(c, article.ArticleId) {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	html(c, "article_delete.html", "pages.articleDelete.title", gin.H{"article": article})
}

func (a *ArticleController) delete(c *gin.Context) {
	id, ok := paramInt(c, "id")
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	if !a.canEdit(c, id) {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	user := middleware.CurrentUser(c)
	if a.articleService.DeleteArticle(c.Request.Context(), id) {
		logger.Infof("%s deleted article %d", user.Username, id)
		session.AddFlash(c, I18nWeb(c, "pages.articleDelete.deleted"))
	} else {
		session.AddFlash(c, I18nWeb(c, "pages.articleDelete.failed"))
	}
	redirect(c, "articles/mine")
}

// find loads the article named by the id parameter, answering 404 when
// there is none.
func (a *ArticleController) find(c *gin.Context) (*model.Article, bool) {
	id, ok := paramInt(c, "id")
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return nil, false
	}
	article, ok := a.articleService.GetArticleById(c.Request.Context(), id)
	if !ok {
		htmlStatus(c, http.StatusNotFound, "not_found.html", "pages.notFound.title", nil)
		c.Abort()
		return nil, false
	}
	return article, true
}

func (a *ArticleController) canEdit(c *gin.Context, articleId int) bool {
	user := middleware.CurrentUser(c)
	if user == nil {
		return false
	}
	return a.articleService.CanEditArticle(c.Request.Context(), articleId, user.Username, middleware.HasRole(c, model.RoleAdmin))
}

func (a *ArticleController) formFailed(c *gin.Context, form entity.ArticleForm, action, key string) {
	html(c, "article_form.html", "pages.articleForm.title", gin.H{
		"form":   form,
		"action": action,
		"error":  I18nWeb(c, key),
	})
}

// checkArticle returns the message key for the first problem the author can
// fix, or "".
func checkArticle(a *model.Article) string {
	switch {
	case a.Title == "":
		return "pages.articleForm.emptyTitle"
	case a.EndDate.Before(a.StartDate):
		return "pages.articleForm.invalidRange"
	}
	return ""
}

package controller

import (
	"context"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/blogblazor/blog/caching"
	"github.com/blogblazor/blog/config"
	"github.com/blogblazor/blog/database"
	"github.com/blogblazor/blog/database/model"
	"github.com/blogblazor/blog/web/locale"
	"github.com/blogblazor/blog/web/middleware"
	"github.com/blogblazor/blog/web/service"
	"github.com/blogblazor/blog/web/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testPassword = "P@ssw0rd!"

// each page prints what the assertions look for
const testTemplates = `
{{define "index.html"}}{{range .articles}}{{.Title}};{{end}}{{end}}
{{define "article.html"}}{{.article.Title}} canEdit={{.canEdit}}{{end}}
{{define "articles_mine.html"}}{{range .articles}}{{.Title}};{{end}}{{end}}
{{define "article_form.html"}}form {{.action}} error={{.error}}{{end}}
{{define "article_delete.html"}}delete {{.article.Title}}{{end}}
{{define "login.html"}}login error={{.error}}{{end}}
{{define "register.html"}}register error={{.error}}{{end}}
{{define "users.html"}}{{range .users}}{{.User.Username}}={{.Roles}};{{end}}{{end}}
{{define "user_profile.html"}}profile {{.form.ConcurrencyStamp}} error={{.error}}{{end}}
{{define "user_ban.html"}}ban {{.profile.Username}}{{end}}
{{define "logs.html"}}logs {{len .logs}}{{end}}
{{define "audit.html"}}audit total={{.total}}{{end}}
{{define "not_found.html"}}not found{{end}}
`

type testApp struct {
	engine   *gin.Engine
	identity *service.GormIdentityStore
	articles *service.ArticleService
	admin    *service.AdminService
	auth     *service.AuthService
	audit    *service.AuditLogService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.InitDB(config.NewSQLiteConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB(db) })

	identity := service.NewIdentityStore(db)
	articles := service.NewArticleService(db, identity, service.NewSanitizer())
	users := service.NewUserService(identity)
	app := &testApp{
		identity: identity,
		articles: articles,
		admin:    service.NewAdminService(identity, articles),
		auth:     service.NewAuthService(users, identity, []byte("test-secret"), time.Hour),
		audit:    service.NewAuditLogService(db),
	}
	ctx := context.Background()
	for _, role := range []string{model.AdminRoleName, model.ContributorRoleName} {
		require.NoError(t, identity.CreateRole(ctx, role))
	}

	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(FuncMap()).Parse(testTemplates)))
	r.Use(sessions.Sessions(session.CookieName, cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	r.Use(locale.LocalizerMiddleware())
	r.Use(func(c *gin.Context) { c.Set("base_path", "/") })
	r.Use(middleware.LoadUser(app.admin, app.auth))
	r.Use(middleware.AuditMiddleware(app.audit))

	g := r.Group("/")
	api := r.Group("/panel/api")
	loginFailures := caching.NewCache(time.Minute)
	NewIndexController(g, users, app.audit, IndexOptions{LoginFailures: loginFailures, MaxAttempts: 3, SessionMaxAge: 60})
	NewArticleController(g, articles)
	NewAPIController(g, articles, app.auth, loginFailures, 3)
	NewUserAdminController(g, api, app.admin)
	NewAuditController(g, api, app.audit)

	app.engine = r
	return app
}

func (app *testApp) addUser(t *testing.T, email string, roles ...string) *model.User {
	t.Helper()
	ctx := context.Background()
	u := &model.User{Username: email, Email: email, FirstName: "First", LastName: "Last"}
	require.NoError(t, app.identity.Create(ctx, u, testPassword))
	for _, r := range roles {
		require.NoError(t, app.identity.AddToRole(ctx, u, r))
	}
	return u
}

func (app *testApp) addArticle(t *testing.T, owner, title string, start, end time.Time) *model.Article {
	t.Helper()
	a := &model.Article{Title: title, Body: "<p>" + title + "</p>", StartDate: start, EndDate: end}
	require.True(t, app.articles.CreateArticle(context.Background(), a, owner))
	return a
}

func (app *testApp) token(t *testing.T, username string) string {
	t.Helper()
	tok, err := app.auth.IssueToken(context.Background(), username, testPassword)
	require.NoError(t, err)
	return tok
}

type request struct {
	method string
	path   string
	form   url.Values
	json   string
	token  string
	cookie []*http.Cookie
}

func (app *testApp) do(r request) *httptest.ResponseRecorder {
	var req *http.Request
	switch {
	case r.form != nil:
		req = httptest.NewRequest(r.method, r.path, strings.NewReader(r.form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	case r.json != "":
		req = httptest.NewRequest(r.method, r.path, strings.NewReader(r.json))
		req.Header.Set("Content-Type", "application/json")
	default:
		req = httptest.NewRequest(r.method, r.path, nil)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	for _, c := range r.cookie {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	app.engine.ServeHTTP(w, req)
	return w
}

func get(path, token string) request {
	return request{method: http.MethodGet, path: path, token: token}
}

func post(path, token string, form url.Values) request {
	if form == nil {
		form = url.Values{}
	}
	return request{method: http.MethodPost, path: path, token: token, form: form}
}

func days(d int) time.Time {
	return time.Now().UTC().Truncate(time.Minute).AddDate(0, 0, d)
}

func articleForm(title string, start, end time.Time) url.Values {
	return url.Values{
		"title":     {title},
		"body":      {"<script>x</script><b>hi</b>"},
		"startDate": {start.Format("2006-01-02T15:04")},
		"endDate":   {end.Format("2006-01-02T15:04")},
	}
}

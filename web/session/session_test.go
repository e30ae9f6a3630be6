package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions(CookieName, cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	r.GET("/login", func(c *gin.Context) {
		_ = SetLoginUser(c, LoginUser{Id: 7, Username: "a@example.com"})
		AddFlash(c, "welcome")
		c.Status(http.StatusOK)
	})
	r.GET("/whoami", func(c *gin.Context) {
		u := GetLoginUser(c)
		if u == nil {
			c.String(http.StatusUnauthorized, "")
			return
		}
		c.String(http.StatusOK, u.Username)
	})
	r.GET("/flash", func(c *gin.Context) {
		c.JSON(http.StatusOK, Flashes(c))
	})
	r.GET("/logout", func(c *gin.Context) {
		_ = ClearSession(c)
		c.Status(http.StatusOK)
	})
	return r
}

func do(r http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// lastCookies keeps the final Set-Cookie per name, as a browser would.
func lastCookies(w *httptest.ResponseRecorder) []*http.Cookie {
	byName := map[string]*http.Cookie{}
	order := []string{}
	for _, c := range w.Result().Cookies() {
		if _, ok := byName[c.Name]; !ok {
			order = append(order, c.Name)
		}
		byName[c.Name] = c
	}
	out := make([]*http.Cookie, 0, len(order))
	for _, n := range order {
		out = append(out, byName[n])
	}
	return out
}

func TestLoginRoundTrip(t *testing.T) {
	r := newRouter()

	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", nil).Code)

	login := do(r, "/login", nil)
	require.Equal(t, http.StatusOK, login.Code)
	cookies := lastCookies(login)
	require.NotEmpty(t, cookies)

	who := do(r, "/whoami", cookies)
	assert.Equal(t, http.StatusOK, who.Code)
	assert.Equal(t, "a@example.com", who.Body.String())

	flash := do(r, "/flash", cookies)
	assert.JSONEq(t, `["welcome"]`, flash.Body.String())

	logout := do(r, "/logout", cookies)
	cleared := lastCookies(logout)
	require.NotEmpty(t, cleared)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/whoami", cleared).Code)
}

func TestWithoutSessionMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		assert.Nil(t, GetLoginUser(c))
		assert.False(t, IsLogin(c))
		assert.Nil(t, Flashes(c))
		assert.NoError(t, ClearSession(c))
		c.Status(http.StatusOK)
	})
	assert.Equal(t, http.StatusOK, do(r, "/", nil).Code)
}

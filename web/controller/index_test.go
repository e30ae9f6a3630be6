package controller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/blogblazor/blog/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func TestLoginLogout(t *testing.T) {
	app := newTestApp(t)
	app.addUser(t, "c@example.com", model.ContributorRoleName)

	w := app.do(post("/login", "", url.Values{"username": {"c@example.com"}, "password": {testPassword}}))
	require.Equal(t, http.StatusSeeOther, w.Code)
	cookies := lastCookies(w)
	require.NotEmpty(t, cookies)

	w = app.do(request{method: http.MethodGet, path: "/articles/mine", cookie: cookies})
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(request{method: http.MethodPost, path: "/logout", form: url.Values{}, cookie: cookies})
	require.Equal(t, http.StatusSeeOther, w.Code)
	cleared := lastCookies(w)

	w = app.do(request{method: http.MethodGet, path: "/articles/mine", cookie: cleared})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	_, total, err := app.audit.GetAuditLogs(context.Background(), 10, 0, "LOGIN", "session")
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestLoginFailures(t *testing.T) {
	app := newTestApp(t)
	app.addUser(t, "c@example.com")

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"empty username", url.Values{"password": {"x"}}, "login error=pages.login.toasts.emptyUsername"},
		{"empty password", url.Values{"username": {"c@example.com"}}, "login error=pages.login.toasts.emptyPassword"},
		{"wrong password", url.Values{"username": {"c@example.com"}, "password": {"wrong"}}, "login error=pages.login.toasts.wrongUsernameOrPassword"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(post("/login", "", tt.form))
			assert.Equal(t, tt.want, w.Body.String())
			assert.Empty(t, lastCookies(w))
		})
	}

	// two more failures reach the limit of three
	app.do(post("/login", "", url.Values{"username": {"c@example.com"}, "password": {"wrong"}}))
	app.do(post("/login", "", url.Values{"username": {"c@example.com"}, "password": {"wrong"}}))
	w := app.do(post("/login", "", url.Values{"username": {"c@example.com"}, "password": {testPassword}}))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestSessionOfBannedUserIsDropped(t *testing.T) {
	app := newTestApp(t)
	app.addUser(t, "c@example.com", model.ContributorRoleName)

	w := app.do(post("/login", "", url.Values{"username": {"c@example.com"}, "password": {testPassword}}))
	cookies := lastCookies(w)

	require.True(t, app.admin.BanUser(context.Background(), "c@example.com"))

	w = app.do(request{method: http.MethodGet, path: "/articles/mine", cookie: cookies})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestRegister(t *testing.T) {
	app := newTestApp(t)
	app.addUser(t, "taken@example.com")

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"mismatch", url.Values{"email": {"n@example.com"}, "password": {testPassword}, "confirmPassword": {"other"}}, "register error=pages.register.passwordMismatch"},
		{"short", url.Values{"email": {"n@example.com"}, "password": {"Ab1!"}, "confirmPassword": {"Ab1!"}}, "register error=pages.register.passwordTooShort"},
		{"weak", url.Values{"email": {"n@example.com"}, "password": {"password1"}, "confirmPassword": {"password1"}}, "register error=pages.register.passwordWeak"},
		{"taken", url.Values{"email": {"taken@example.com"}, "password": {testPassword}, "confirmPassword": {testPassword}}, "register error=pages.register.exists"},
		{"no email", url.Values{"email": {"nope"}, "password": {testPassword}, "confirmPassword": {testPassword}}, "register error=pages.register.invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(post("/register", "", tt.form))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}

	w := app.do(post("/register", "", url.Values{
		"email": {"new@example.com"}, "password": {testPassword}, "confirmPassword": {testPassword},
		"firstName": {"New"}, "lastName": {"User"},
	}))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.NotEmpty(t, lastCookies(w))

	u, ok := app.admin.GetUserDetails(context.Background(), "new@example.com")
	require.True(t, ok)
	assert.Equal(t, "New", u.FirstName)
	assert.Empty(t, app.admin.RolesOf(context.Background(), "new@example.com"))
}

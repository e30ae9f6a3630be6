package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/blogblazor/blog/config"
	"github.com/blogblazor/blog/database"
	"github.com/blogblazor/blog/database/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "P@ssw0rd!"

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testServices struct {
	db       *gorm.DB
	identity *GormIdentityStore
	articles *ArticleService
	admin    *AdminService
	users    *UserService
	clock    *fakeClock
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()
	db, err := database.InitDB(config.NewSQLiteConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB(db) })

	identity := NewIdentityStore(db)
	articles := NewArticleService(db, identity, NewSanitizer())
	clock := &fakeClock{t: time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)}
	articles.SetClock(clock.Now)

	ctx := context.Background()
	for _, role := range []string{model.AdminRoleName, model.ContributorRoleName} {
		require.NoError(t, identity.CreateRole(ctx, role))
	}

	return &testServices{
		db:       db,
		identity: identity,
		articles: articles,
		admin:    NewAdminService(identity, articles),
		users:    NewUserService(identity),
		clock:    clock,
	}
}

func (ts *testServices) addUser(t *testing.T, email string, roles ...string) *model.User {
	t.Helper()
	ctx := context.Background()
	u := &model.User{Username: email, Email: email, FirstName: "First", LastName: "Last"}
	require.NoError(t, ts.identity.Create(ctx, u, testPassword))
	for _, r := range roles {
		require.NoError(t, ts.identity.AddToRole(ctx, u, r))
	}
	return u
}

func (ts *testServices) addArticle(t *testing.T, owner, title string, start, end time.Time) *model.Article {
	t.Helper()
	a := &model.Article{Title: title, Body: "<p>" + title + "</p>", StartDate: start, EndDate: end}
	require.True(t, ts.articles.CreateArticle(context.Background(), a, owner))
	return a
}

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/blogblazor/blog/database/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateArticleRejectsInvertedWindow(t *testing.T) {
	ts := newTestServices(t)
	ts.addUser(t, "a@example.com", model.ContributorRoleName)

	a := &model.Article{Title: "backwards", Body: "x", StartDate: day(10), EndDate: day(5)}
	assert.False(t, ts.articles.CreateArticle(context.Background(), a, "a@example.com"))
	assert.Zero(t, a.ArticleId)
	assert.Empty(t, ts.articles.ListAllArticles(context.Background()))
}

func TestCreateArticleValidation(t *testing.T) {
	ts := newTestServices(t)
	ts.addUser(t, "a@example.com", model.ContributorRoleName)
	ctx := context.Background()

	tests := []struct {
		name    string
		article model.Article
		author  string
		want    bool
	}{
		{"valid", model.Article{Title: "ok", StartDate: day(1), EndDate: day(10)}, "a@example.com", true},
		{"same day window", model.Article{Title: "ok", StartDate: day(1), EndDate: day(1)}, "a@example.com", true},
		{"blank title", model.Article{Title: "  ", StartDate: day(1), EndDate: day(10)}, "a@example.com", false},
		{"missing end", model.Article{Title: "ok", StartDate: day(1)}, "a@example.com", false},
		{"unknown author", model.Article{Title: "ok", StartDate: day(1), EndDate: day(10)}, "ghost@example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.article
			assert.Equal(t, tt.want, ts.articles.CreateArticle(ctx, &a, tt.author))
		})
	}
}

func TestCreateArticleSanitizesAndStamps(t *testing.T) {
	ts := newTestServices(t)
	author := ts.addUser(t, "a@example.com", model.ContributorRoleName)
	ctx := context.Background()

	a := &model.Article{
		Title:     "xss",
		Body:      "<script>x</script><b>ok</b>",
		StartDate: day(1),
		EndDate:   day(10),
	}
	require.True(t, ts.articles.CreateArticle(ctx, a, author.Username))
	assert.NotZero(t, a.ArticleId)

	stored, ok := ts.articles.GetArticleById(ctx, a.ArticleId)
	require.True(t, ok)
	assert.Contains(t, stored.Body, "<b>ok</b>")
	assert.NotContains(t, stored.Body, "<script>")
	assert.True(t, stored.CreateDate.Equal(ts.clock.Now()))
	assert.Equal(t, author.Username, stored.ContributorUsername)
	assert.Equal(t, author.Id, stored.ContributorId)
	require.NotNil(t, stored.Contributor)
	assert.Equal(t, author.Email, stored.Contributor.Email)
}

func TestListVisibleArticles(t *testing.T) {
	ts := newTestServices(t)
	ts.addUser(t, "a@example.com", model.ContributorRoleName)
	ctx := context.Background()
	now := ts.clock.Now()

	older := ts.addArticle(t, "a@example.com", "older", day(1), day(10))
	ts.clock.Advance(time.Minute)
	ts.addArticle(t, "a@example.com", "future", day(6), day(20))
	ts.clock.Advance(time.Minute)
	ts.addArticle(t, "a@example.com", "expired", day(1), day(4))
	ts.clock.Advance(time.Minute)
	newer := ts.addArticle(t, "a@example.com", "newer", day(2), day(9))
	ts.clock.Advance(time.Minute)
	startsNow := ts.addArticle(t, "a@example.com", "starts now", now, day(9))
	ts.clock.Advance(time.Minute)
	endsNow := ts.addArticle(t, "a@example.com", "ends now", day(1), now)

	ts.clock.t = now
	visible := ts.articles.ListVisibleArticles(ctx)
	ids := make([]int, 0, len(visible))
	for _, a := range visible {
		ids = append(ids, a.ArticleId)
	}
	assert.Equal(t, []int{endsNow.ArticleId, startsNow.ArticleId, newer.ArticleId, older.ArticleId}, ids)

	ts.clock.t = day(7)
	titles := make([]string, 0)
	for _, a := range ts.articles.ListVisibleArticles(ctx) {
		titles = append(titles, a.Title)
	}
	assert.Equal(t, []string{"starts now", "newer", "future", "older"}, titles)

	assert.Len(t, ts.articles.ListAllArticles(ctx), 6)
}

func TestCanEditArticle(t *testing.T) {
	ts := newTestServices(t)
	ts.addUser(t, "a@example.com", model.ContributorRoleName)
	ts.addUser(t, "b@example.com", model.ContributorRoleName)
	ctx := context.Background()

	x := ts.addArticle(t, "a@example.com", "x", day(1), day(10))

	assert.True(t, ts.articles.CanEditArticle(ctx, x.ArticleId, "a@example.com", false))
	assert.False(t, ts.articles.CanEditArticle(ctx, x.ArticleId, "b@example.com", false))
	assert.True(t, ts.articles.CanEditArticle(ctx, x.ArticleId, "admin@example.com", true))
	assert.False(t, ts.articles.CanEditArticle(ctx, 999, "a@example.com", false))
	assert.False(t, ts.articles.CanEditArticle(ctx, 999, "admin@example.com", true))
}

func TestEditArticle(t *testing.T) {
	ts := newTestServices(t)
	ts.addUser(t, "a@example.com", model.ContributorRoleName)
	admin := ts.addUser(t, "admin@example.com", model.AdminRoleName)
	ctx := context.Background()

	x := ts.addArticle(t, "a@example.com", "x", day(1), day(10))
	created := x.CreateDate
	ts.clock.Advance(time.Hour)

	ok := ts.articles.EditArticle(ctx, x.ArticleId, &model.Article{
		Title:     "x2",
		Body:      `<a href="javascript:alert(1)">link</a><i>fine</i>`,
		StartDate: day(2),
		EndDate:   day(12),
	}, admin.Username)
	require.True(t, ok)

	stored, ok := ts.articles.GetArticleById(ctx, x.ArticleId)
	require.True(t, ok)
	assert.Equal(t, "x2", stored.Title)
	assert.NotContains(t, stored.Body, "javascript:")
	assert.Contains(t, stored.Body, "<i>fine</i>")
	assert.True(t, stored.StartDate.Equal(day(2)))
	assert.True(t, stored.EndDate.Equal(day(12)))
	assert.True(t, stored.CreateDate.Equal(created))
	// editing hands the article to the editor
	assert.Equal(t, admin.Username, stored.ContributorUsername)
	assert.Equal(t, admin.Id, stored.ContributorId)
}

func TestEditArticleFailures(t *testing.T) {
	ts := newTestServices(t)
	ts.addUser(t, "a@example.com", model.ContributorRoleName)
	ctx := context.Background()
	x := ts.addArticle(t, "a@example.com", "x", day(1), day(10))

	assert.False(t, ts.articles.EditArticle(ctx, 999, &model.Article{Title: "t", StartDate: day(1), EndDate: day(2)}, "a@example.com"))
	assert.False(t, ts.articles.EditArticle(ctx, x.ArticleId, &model.Article{Title: "t", StartDate: day(10), EndDate: day(5)}, "a@example.com"))
	assert.False(t, ts.articles.EditArticle(ctx, x.ArticleId, &model.Article{Title: "t", StartDate: day(1), EndDate: day(5)}, "ghost@example.com"))

	stored, ok := ts.articles.GetArticleById(ctx, x.ArticleId)
	require.True(t, ok)
	assert.Equal(t, "x", stored.Title)
	assert.True(t, stored.EndDate.Equal(day(10)))
}

func TestDeleteArticle(t *testing.T) {
	ts := newTestServices(t)
	ts.addUser(t, "a@example.com", model.ContributorRoleName)
	ctx := context.Background()
	x := ts.addArticle(t, "a@example.com", "x", day(1), day(10))

	assert.True(t, ts.articles.DeleteArticle(ctx, x.ArticleId))
	assert.False(t, ts.articles.DeleteArticle(ctx, x.ArticleId))
	_, ok := ts.articles.GetArticleById(ctx, x.ArticleId)
	assert.False(t, ok)
}

func TestSanitizerIsIdempotent(t *testing.T) {
	s := NewSanitizer()
	inputs := []string{
		"<script>x</script><b>ok</b>",
		`<p onclick="evil()">Tom &amp; "Jerry"</p>`,
		`<img src="x" onerror="alert(1)"><ul><li>one</li></ul>`,
		"plain text with <unknown>tags</unknown>",
	}
	for _, in := range inputs {
		once := s.Sanitize(in)
		assert.Equal(t, once, s.Sanitize(once), in)
		assert.False(t, strings.Contains(strings.ToLower(once), "<script"), in)
		assert.False(t, strings.Contains(strings.ToLower(once), "onerror"), in)
		assert.False(t, strings.Contains(strings.ToLower(once), "onclick"), in)
	}
}

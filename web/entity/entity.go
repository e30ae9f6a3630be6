// Package entity defines the request forms and response envelopes of the web layer.
package entity

import (
	"strings"
	"time"

	"github.com/blogblazor/blog/database/model"
	"github.com/blogblazor/blog/util/common"
)

// Msg represents a standard API response message with success status, message text, and optional data object.
type Msg struct {
	Success bool   `json:"success"` // Indicates if the operation was successful
	Msg     string `json:"msg"`     // Response message text
	Obj     any    `json:"obj"`     // Optional data object
}

// LoginForm is posted by the sign-in screen and by the token endpoint.
type LoginForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type RegisterForm struct {
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
	FirstName       string `json:"firstName" form:"firstName"`
	LastName        string `json:"lastName" form:"lastName"`
}

// DateLayout is what datetime-local inputs submit and render.
const DateLayout = "2006-01-02T15:04"

var dateLayouts = []string{DateLayout, time.RFC3339, "2006-01-02"}

// ArticleForm carries the editable fields of an article. Dates are
// interpreted as UTC.
type ArticleForm struct {
	Title     string `json:"title" form:"title"`
	Body      string `json:"body" form:"body"`
	StartDate string `json:"startDate" form:"startDate"`
	EndDate   string `json:"endDate" form:"endDate"`
}

// ParseDate accepts datetime-local, RFC 3339 and plain date values.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, common.NewErrorf("invalid date %q", value)
}

func (f *ArticleForm) ToArticle() (*model.Article, error) {
	start, err := ParseDate(f.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(f.EndDate)
	if err != nil {
		return nil, err
	}
	return &model.Article{
		Title:     strings.TrimSpace(f.Title),
		Body:      f.Body,
		StartDate: start,
		EndDate:   end,
	}, nil
}

// NewArticleForm fills a form from a stored article for editing.
func NewArticleForm(a *model.Article) ArticleForm {
	return ArticleForm{
		Title:     a.Title,
		Body:      a.Body,
		StartDate: a.StartDate.UTC().Format(DateLayout),
		EndDate:   a.EndDate.UTC().Format(DateLayout),
	}
}

// ProfileForm edits a user's profile. ConcurrencyStamp must echo the value
// the form was rendered with.
type ProfileForm struct {
	FirstName        string `json:"firstName" form:"firstName"`
	LastName         string `json:"lastName" form:"lastName"`
	Email            string `json:"email" form:"email"`
	ConcurrencyStamp string `json:"concurrencyStamp" form:"concurrencyStamp"`
}

type ContributorForm struct {
	Enabled bool `json:"enabled" form:"enabled"`
}

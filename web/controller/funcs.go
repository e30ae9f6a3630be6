package controller

import (
	"html/template"
	"time"

	"github.com/blogblazor/blog/database/model"
	"github.com/blogblazor/blog/web/locale"
)

// FuncMap returns the functions available to every page template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"i18n": locale.I18n,
		"date": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04")
		},
		// article bodies are sanitized before they are stored
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"hasRole": func(roles []model.Role, name string) bool {
			return model.HasRole(roles, model.ParseRole(name))
		},
	}
}

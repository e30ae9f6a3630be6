// Package locale serves translated UI strings from toml message files.
package locale

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/blogblazor/blog/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

var (
	i18nBundle       *i18n.Bundle
	defaultLocalizer *i18n.Localizer
)

// InitLocalizer loads every file under translation/ in i18nFS. English is
// the fallback language.
func InitLocalizer(i18nFS fs.FS) error {
	fallback := language.MustParse("en-US")
	bundle := i18n.NewBundle(fallback)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	err := fs.WalkDir(i18nFS, "translation", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(i18nFS, path)
		if err != nil {
			return err
		}
		_, err = bundle.ParseMessageFileBytes(data, path)
		return err
	})
	if err != nil {
		return err
	}
	i18nBundle = bundle
	defaultLocalizer = i18n.NewLocalizer(bundle, fallback.String())
	return nil
}

// createTemplateData turns "key==value" params into template data.
func createTemplateData(params []string) map[string]any {
	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, "==", 2)
		if len(parts) == 2 {
			templateData[parts[0]] = parts[1]
		}
	}
	return templateData
}

// I18n localizes key. Messages missing in the requested language come from
// the English file, and the key itself is returned when neither has it.
func I18n(localizer *i18n.Localizer, key string, params ...string) string {
	if localizer == nil {
		return key
	}
	cfg := &i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	}
	msg, err := localizer.Localize(cfg)
	var notFound *i18n.MessageNotFoundErr
	if errors.As(err, &notFound) && defaultLocalizer != nil && localizer != defaultLocalizer {
		msg, err = defaultLocalizer.Localize(cfg)
	}
	if err != nil {
		logger.Debugf("Failed to localize message %q: %v", key, err)
		return key
	}
	return msg
}

// LocalizerMiddleware picks the language from the lang cookie or the
// Accept-Language header and stores a localizer in the gin context.
func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var localizer *i18n.Localizer
		if i18nBundle != nil {
			var lang string
			if cookie, err := c.Request.Cookie("lang"); err == nil {
				lang = cookie.Value
			} else {
				lang = c.GetHeader("Accept-Language")
			}
			localizer = i18n.NewLocalizer(i18nBundle, lang)
		}
		c.Set("localizer", localizer)
		c.Next()
	}
}

// FromContext returns the request's localizer, nil outside LocalizerMiddleware.
func FromContext(c *gin.Context) *i18n.Localizer {
	v, ok := c.Get("localizer")
	if !ok {
		return nil
	}
	l, _ := v.(*i18n.Localizer)
	return l
}

package locale

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testFS = fstest.MapFS{
	"translation/translate.en_US.toml": {Data: []byte(`
"hello" = "Hello {{ .name }}"
"bye" = "Bye"
`)},
	"translation/translate.ru_RU.toml": {Data: []byte(`
"hello" = "Привет {{ .name }}"
`)},
}

func TestLocalizerMiddleware(t *testing.T) {
	require.NoError(t, InitLocalizer(testFS))
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(LocalizerMiddleware())
	r.GET("/", func(c *gin.Context) {
		l := FromContext(c)
		c.String(http.StatusOK, I18n(l, "hello", "name==Ann")+"|"+I18n(l, "bye")+"|"+I18n(l, "missing.key"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "Hello Ann|Bye|missing.key", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "lang", Value: "ru-RU"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "Привет Ann|Bye|missing.key", w.Body.String())
}

func TestI18nWithoutLocalizer(t *testing.T) {
	assert.Equal(t, "pages.login.title", I18n(nil, "pages.login.title"))
}

func TestCreateTemplateData(t *testing.T) {
	data := createTemplateData([]string{"a==1", "b==x==y", "broken"})
	assert.Equal(t, map[string]any{"a": "1", "b": "x==y"}, data)
}

func TestI18nFallsBackToEnglish(t *testing.T) {
	require.NoError(t, InitLocalizer(testFS))
	ru := i18n.NewLocalizer(i18nBundle, "ru-RU")

	assert.Equal(t, "Привет Ann", I18n(ru, "hello", "name==Ann"))
	assert.Equal(t, "Bye", I18n(ru, "bye"))
	assert.Equal(t, "missing.key", I18n(ru, "missing.key"))
}

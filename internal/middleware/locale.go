package middleware

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"

	"github.com/charlesng35/userprofile/internal/i18n"
)

const (
	CtxLocaleKey     = "locale"
	CtxTranslatorKey = "translator"
)

// Locale resolves the request language from Accept-Language (or a "lang" query
// parameter) and stores a translator on the context.
func Locale(bundle *i18n.Bundle, fallback string) gin.HandlerFunc {
	return func(c *gin.Context) {
		accept := c.GetHeader("Accept-Language")
		if lang := c.Query("lang"); lang != "" {
			accept = lang
		}
		tag := bundle.Resolve(accept, fallback)

		c.Set(CtxLocaleKey, tag)
		c.Set(CtxTranslatorKey, bundle.Translate(tag))
		c.Header("Content-Language", tag.String())
		c.Next()
	}
}

// Translate renders key in the request locale. Without the Locale middleware the
// base locale is used.
func Translate(c *gin.Context, key string, args ...any) string {
	if v, ok := c.Get(CtxTranslatorKey); ok {
		if tr, ok := v.(func(string, ...any) string); ok {
			return tr(key, args...)
		}
	}
	bundle := i18n.Default()
	return bundle.Translate(language.MustParse(i18n.BaseLocale))(key, args...)
}

// Translator returns the request translator as a plain function.
func Translator(c *gin.Context) func(string, ...any) string {
	return func(key string, args ...any) string {
		return Translate(c, key, args...)
	}
}

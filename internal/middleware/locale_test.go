package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/userprofile/internal/i18n"
)

func TestLocaleMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(Locale(i18n.Default(), i18n.BaseLocale))
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, Translate(c, "profile.config.saved"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr")
	r.ServeHTTP(w, req)
	require.Equal(t, "fr-FR", w.Header().Get("Content-Language"))
	require.NotEqual(t, "The list of elements has been saved.", w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("Accept-Language", "fr")
	r.ServeHTTP(w, req)
	require.Equal(t, "en-US", w.Header().Get("Content-Language"))
	require.Equal(t, "The list of elements has been saved.", w.Body.String())
}

func TestTranslateWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	require.Equal(t, "This module requires the module \"Common\", version 3.4.54 or above.",
		Translate(c, "module.install.missing_dependency", "Common", "3.4.54"))
}

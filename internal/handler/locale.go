package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/groupfun/internal/locale"
)

const localeContextKey = "__request_locale"

// LocaleMiddleware resolves reply language and sets headers for downstream caching.
func (a *API) LocaleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		pref := a.requestLocale(c)
		c.Header("Content-Language", pref.HTMLLang)
		appendVaryHeader(c, "Accept-Language")
		c.Next()
	}
}

func (a *API) requestLocale(c *gin.Context) locale.Preference {
	if cached, exists := c.Get(localeContextKey); exists {
		if pref, ok := cached.(locale.Preference); ok {
			return pref
		}
	}
	pref := locale.PreferenceForLanguage(a.resolveLanguage(c))
	c.Set(localeContextKey, pref)
	return pref
}

// resolveLanguage 优先 ?lang=，其次 Accept-Language，最后为配置的默认语言。
func (a *API) resolveLanguage(c *gin.Context) string {
	if override := locale.NormalizeLanguage(c.Query("lang")); override != "" {
		return override
	}
	if fromHeader := locale.LanguageFromAcceptLanguage(c.GetHeader("Accept-Language")); fromHeader != "" {
		return fromHeader
	}
	return a.language
}

func appendVaryHeader(c *gin.Context, values ...string) {
	existing := c.Writer.Header().Values("Vary")
	seen := make(map[string]struct{})
	for _, header := range existing {
		for _, part := range strings.Split(header, ",") {
			seen[strings.ToLower(strings.TrimSpace(part))] = struct{}{}
		}
	}
	for _, value := range values {
		if _, ok := seen[strings.ToLower(value)]; ok {
			continue
		}
		c.Writer.Header().Add("Vary", value)
		seen[strings.ToLower(value)] = struct{}{}
	}
}

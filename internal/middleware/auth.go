package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/healthlearn/site/internal/modules/content/query"
	"github.com/healthlearn/site/internal/pkg/jwt"
	"github.com/healthlearn/site/internal/pkg/response"
)

const (
	ContextKeySubject = "subject"
	ContextKeyPreview = "preview"

	// PreviewCookie carries the preview token while draft mode is on.
	PreviewCookie = "__site_preview"
)

// Auth returns a middleware that requires a studio-scoped bearer token.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := jwt.ParseScoped(extractToken(c), jwt.ScopeStudio)
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeySubject, claims.Subject)
		c.Next()
	}
}

// Preview switches the request to the drafts perspective when it carries a
// valid preview cookie. Invalid cookies are cleared.
func Preview() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(PreviewCookie)
		if err != nil || raw == "" {
			c.Next()
			return
		}
		if _, err := jwt.ParseScoped(raw, jwt.ScopePreview); err != nil {
			ClearPreviewCookie(c)
			c.Next()
			return
		}
		c.Set(ContextKeyPreview, true)
		c.Request = c.Request.WithContext(query.WithPerspective(c.Request.Context(), query.PerspectiveDrafts))
		c.Next()
	}
}

// SetPreviewCookie stores a preview token.
func SetPreviewCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(PreviewCookie, token, maxAge, "/", "", c.Request.TLS != nil, true)
}

// ClearPreviewCookie removes the preview cookie.
func ClearPreviewCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(PreviewCookie, "", -1, "/", "", c.Request.TLS != nil, true)
}

// CurrentSubject returns the authenticated subject.
func CurrentSubject(c *gin.Context) string {
	return c.GetString(ContextKeySubject)
}

// IsPreview reports whether the request runs in draft mode.
func IsPreview(c *gin.Context) bool {
	return c.GetBool(ContextKeyPreview)
}

func extractToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth != "" {
		return NormalizeToken(auth)
	}
	return NormalizeToken(c.Query("token"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}

package app

import (
	"net/url"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/healthlearn/site/internal/config"
)

// corsConfig allows the configured origin patterns in production and any
// origin in development.
func corsConfig(cfg *config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "x-idempotence"},
		ExposeHeaders:    []string{"Content-Length", "x-site-cache"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) == 0 || cfg.IsDev() {
		c.AllowOriginFunc = func(string) bool { return true }
		return c
	}
	patterns := cfg.AllowedOrigins
	c.AllowOriginFunc = func(origin string) bool {
		host := extractOriginHost(origin)
		for _, pattern := range patterns {
			if matchOriginPattern(pattern, host) {
				return true
			}
		}
		return false
	}
	return c
}

// extractOriginHost returns the "host[:port]" portion of an origin URL.
func extractOriginHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

// matchOriginPattern reports whether host matches pattern. Patterns may be
// exact hosts, "*.example.com" or "localhost:*".
func matchOriginPattern(pattern, host string) bool {
	pattern = extractOriginHost(strings.TrimSpace(pattern))
	if pattern == host {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(host, pattern[1:])
	}
	if strings.HasSuffix(pattern, ":*") {
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}

package portabletext

import (
	"net/url"
	"strings"
	"unicode"
)

// SafeURL returns raw, trimmed, when it is relative or uses the http, https,
// mailto or tel scheme, and "" otherwise. The scheme is read with every
// control and space character removed, since browsers ignore them there.
func SafeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if stripped == "" {
		return ""
	}
	u, err := url.Parse(stripped)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto", "tel":
		return raw
	}
	return ""
}

package sessions

import (
	"net/http"
	"strings"
	"time"
)

const DefaultCookieName = "session_token"

// CookieConfig controls how the session token is delivered to browsers.
type CookieConfig struct {
	Name          string
	Domain        string // apex domain, only applied in production
	Production    bool
	MaxAge        time.Duration
	LegacyDomains []string // domains earlier deployments scoped the cookie to
}

func (c CookieConfig) name() string {
	if c.Name == "" {
		return DefaultCookieName
	}
	return c.Name
}

func normaliseDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	if domain == "" || strings.HasPrefix(domain, ".") {
		return domain
	}
	return "." + domain
}

func (c CookieConfig) SetCookie(w http.ResponseWriter, token string) {
	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	cookie := &http.Cookie{
		Name:     c.name(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Production,
		SameSite: http.SameSiteLaxMode,
	}
	if c.Production {
		cookie.Domain = normaliseDomain(c.Domain)
	}
	http.SetCookie(w, cookie)
}

// ClearCookie expires the cookie on the configured domain, on the request
// host and on every legacy domain.
func (c CookieConfig) ClearCookie(w http.ResponseWriter) {
	domains := []string{""}
	if d := normaliseDomain(c.Domain); d != "" {
		domains = append(domains, d)
	}
	domains = append(domains, c.LegacyDomains...)

	for _, d := range domains {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name(),
			Value:    "",
			Path:     "/",
			Domain:   d,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   c.Production,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// TokenFromRequest returns the session token, or "" when the cookie is absent.
func (c CookieConfig) TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(c.name())
	if err != nil {
		return ""
	}
	return cookie.Value
}

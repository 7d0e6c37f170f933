package config

import (
	"strings"
	"time"
)

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetCookieDomain() string
	GetLegacyCookieDomains() []string
	GetCleanupInterval() time.Duration
	GetSessionBackend() string
	GetRedisURL() string
}

const (
	SessionBackendMongo = "mongo"
	SessionBackendRedis = "redis"
)

type Security struct {
	SessionExpireDays   int           `env:"SESSION_EXPIRE_DAYS" envDefault:"30"`
	CookieDomain        string        `env:"COOKIE_DOMAIN"`
	LegacyCookieDomains []string      `env:"COOKIE_LEGACY_DOMAINS" envSeparator:","`
	CleanupInterval     time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
	SessionBackend      string        `env:"SESSION_BACKEND" envDefault:"mongo"`
	RedisURL            string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
}

var _ SecurityConfig = Security{}

func (s Security) GetMaxSessionAge() time.Duration {
	return time.Duration(s.SessionExpireDays) * 24 * time.Hour
}

// GetCookieDomain returns the apex domain used for the session cookie in production
func (s Security) GetCookieDomain() string {
	return strings.TrimSpace(s.CookieDomain)
}

// GetLegacyCookieDomains lists domains earlier deployments may have scoped the cookie to
func (s Security) GetLegacyCookieDomains() []string {
	domains := make([]string, 0, len(s.LegacyCookieDomains))
	for _, d := range s.LegacyCookieDomains {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

func (s Security) GetCleanupInterval() time.Duration {
	return s.CleanupInterval
}

func (s Security) GetSessionBackend() string {
	return strings.ToLower(s.SessionBackend)
}

func (s Security) GetRedisURL() string {
	return s.RedisURL
}

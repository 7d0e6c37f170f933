package config

import "time"

type OAuthConfig interface {
	GetJWTSecret() string
	GetDefaultAccessTokenExpiry() time.Duration
	GetDefaultRefreshTokenExpiry() time.Duration
}

type OAuth struct {
	JWTSecret                string `env:"JWT_SECRET_KEY,required,unset"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"1440"`
	RefreshTokenExpireDays   int    `env:"REFRESH_TOKEN_EXPIRE_DAYS" envDefault:"30"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetJWTSecret() string {
	return o.JWTSecret
}

func (o OAuth) GetDefaultAccessTokenExpiry() time.Duration {
	return time.Duration(o.AccessTokenExpireMinutes) * time.Minute
}

func (o OAuth) GetDefaultRefreshTokenExpiry() time.Duration {
	return time.Duration(o.RefreshTokenExpireDays) * 24 * time.Hour
}

package config

import (
	"strings"
)

type EnvVars struct {
	Port        string `env:"PORT" envDefault:"8080"`
	AppName     string `env:"APP_NAME" envDefault:"Synco API"`
	Environment string `env:"ENV" envDefault:"DEV"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Environment == "" {
		return "DEV"
	}
	return e.Environment
}

// IsProduction reports whether cookies must be Secure and domain scoped.
func (e EnvVars) IsProduction() bool {
	switch strings.ToLower(e.GetEnv()) {
	case "production", "prod":
		return true
	}
	return false
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetFrontendURL is where the OAuth redirect flow lands, on success and on error
func (e EnvVars) GetFrontendURL() string {
	return strings.TrimRight(e.FrontendURL, "/")
}

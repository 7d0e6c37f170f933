package config

type GoogleConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURI() string
}

type Google struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID,required"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET,required,unset"`
	RedirectURI  string `env:"GOOGLE_REDIRECT_URI" envDefault:"http://localhost:8080/auth/google/callback"`
}

var _ GoogleConfig = Google{}

func (g Google) GetGoogleClientID() string {
	return g.ClientID
}

func (g Google) GetGoogleClientSecret() string {
	return g.ClientSecret
}

// GetGoogleRedirectURI must match the redirect uri registered with Google exactly
func (g Google) GetGoogleRedirectURI() string {
	return g.RedirectURI
}

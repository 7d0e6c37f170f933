package auth

import (
	"context"

	"github.com/jrsteele09/synco-server/internal/errors"
)

// Prompt values understood by the identity provider.
const (
	PromptNone          = "none"
	PromptSelectAccount = "select_account"
	PromptConsent       = "consent"
)

// AuthRequest carries everything placed on the provider's authorization URL.
type AuthRequest struct {
	State         string
	CodeChallenge string
	Nonce         string
	Prompt        string
	LoginHint     string
}

type ProviderToken struct {
	AccessToken string
	Subject     string // provider user id from the verified id_token
}

type ProviderUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	VerifiedEmail bool   `json:"verified_email"`
}

// IdentityProvider is the authorization code + PKCE side of an OAuth provider.
// Exchange verifies the id_token against the nonce sent in AuthCodeURL.
// Exchange and UserInfo failures wrap errors.ErrProviderExchange; failures
// the caller caused (a 4xx from the provider) also wrap errors.ErrInvalidGrant.
type IdentityProvider interface {
	AuthCodeURL(req AuthRequest) string
	Exchange(ctx context.Context, code, verifier, nonce string) (*ProviderToken, error)
	UserInfo(ctx context.Context, accessToken string) (*ProviderUser, error)
}

// ProviderError is an error the provider reported on the redirect back, such
// as login_required after a prompt=none request.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return e.Code + ": " + e.Description
	}
	return e.Code
}

func (e *ProviderError) Unwrap() error {
	return errors.ErrProviderReported
}

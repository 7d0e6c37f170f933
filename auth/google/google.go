// Package google implements auth.IdentityProvider against Google's OAuth endpoints.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/synco-server/auth"
	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/jrsteele09/synco-server/pkce"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

const (
	DefaultIssuer      = "https://accounts.google.com"
	DefaultJWKSURL     = "https://www.googleapis.com/oauth2/v3/certs"
	DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	defaultTimeout     = 10 * time.Second

	scopeEmail   = "email"
	scopeProfile = "profile"
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Overridable for tests
	Endpoint    oauth2.Endpoint
	UserInfoURL string
	HTTPClient  *http.Client
	Issuer      string
	KeySet      oidc.KeySet // id_token signing keys, Google's JWKS by default
}

type Provider struct {
	cfg         *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	userInfoURL string
	client      *http.Client
}

var _ auth.IdentityProvider = (*Provider)(nil)

func New(cfg Config) *Provider {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = googleoauth.Endpoint
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = DefaultUserInfoURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	keySet := cfg.KeySet
	if keySet == nil {
		keySet = oidc.NewRemoteKeySet(oidc.ClientContext(context.Background(), client), DefaultJWKSURL)
	}

	return &Provider{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, scopeEmail, scopeProfile},
			Endpoint:     endpoint,
		},
		verifier:    oidc.NewVerifier(issuer, keySet, &oidc.Config{ClientID: cfg.ClientID}),
		userInfoURL: userInfoURL,
		client:      client,
	}
}

func (p *Provider) AuthCodeURL(req auth.AuthRequest) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", req.CodeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", pkce.MethodS256),
		oidc.Nonce(req.Nonce),
	}
	if req.Prompt != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", req.Prompt))
	}
	if req.LoginHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", req.LoginHint))
	}
	return p.cfg.AuthCodeURL(req.State, opts...)
}

// Exchange redeems code with the PKCE verifier and checks that the returned
// id_token was issued for this client and carries nonce.
func (p *Provider) Exchange(ctx context.Context, code, verifier, nonce string) (*auth.ProviderToken, error) {
	ctx = oidc.ClientContext(ctx, p.client)
	tok, err := p.cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			return nil, statusError("token endpoint", rerr.Response.StatusCode, rerr.ErrorCode)
		}
		return nil, errors.Join(errors.ErrProviderExchange, err)
	}

	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" {
		return nil, errors.Join(errors.ErrProviderExchange, errors.New("token response has no id_token"))
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Join(errors.ErrProviderExchange, errors.ErrInvalidGrant, fmt.Errorf("verify id_token: %w", err))
	}
	if idToken.Nonce != nonce {
		return nil, errors.Join(errors.ErrProviderExchange, errors.ErrInvalidGrant, errors.New("id_token nonce mismatch"))
	}
	return &auth.ProviderToken{AccessToken: tok.AccessToken, Subject: idToken.Subject}, nil
}

func (p *Provider) UserInfo(ctx context.Context, accessToken string) (*auth.ProviderUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, errors.Join(errors.ErrProviderExchange, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Join(errors.ErrProviderExchange, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, statusError("userinfo endpoint", resp.StatusCode, string(body))
	}

	var user auth.ProviderUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.Join(errors.ErrProviderExchange, fmt.Errorf("decode userinfo: %w", err))
	}
	if user.ID == "" || user.Email == "" {
		return nil, errors.Join(errors.ErrProviderExchange, errors.New("userinfo missing id or email"))
	}
	return &user, nil
}

// statusError marks 4xx responses as caused by the caller's code or token.
func statusError(endpoint string, status int, detail string) error {
	err := fmt.Errorf("%s returned %d: %s", endpoint, status, detail)
	if status >= 400 && status < 500 {
		return errors.Join(errors.ErrProviderExchange, errors.ErrInvalidGrant, err)
	}
	return errors.Join(errors.ErrProviderExchange, err)
}

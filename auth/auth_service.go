package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/jrsteele09/synco-server/pkce"
	"github.com/jrsteele09/synco-server/sessions"
	"github.com/jrsteele09/synco-server/token"
	"github.com/jrsteele09/synco-server/token/refresh"
	"github.com/jrsteele09/synco-server/users"
	"github.com/rs/zerolog/log"
)

const TokenTypeBearer = "bearer"

// Deps holds the collaborators of the Service.
type Deps struct {
	Provider      IdentityProvider
	Users         *users.Service
	Sessions      *sessions.Manager
	RefreshTokens *refresh.Manager
	Codec         *token.Codec
}

// Service drives the Google login flows and the bearer token grants.
type Service struct {
	deps    Deps
	metrics *Metrics
}

type ServiceOption func(*Service)

func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(deps Deps, options ...ServiceOption) (*Service, error) {
	if deps.Provider == nil {
		return nil, errors.New("[auth.NewService] identity provider is required")
	}
	if deps.Users == nil {
		return nil, errors.New("[auth.NewService] users service is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("[auth.NewService] sessions manager is required")
	}
	if deps.RefreshTokens == nil {
		return nil, errors.New("[auth.NewService] refresh token manager is required")
	}
	if deps.Codec == nil {
		return nil, errors.New("[auth.NewService] token codec is required")
	}

	s := &Service{deps: deps}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

type LoginRequest struct {
	SessionToken string // value of the session cookie, if any
	Prompt       string // explicit prompt, overrides the session based choice
	LoginHint    string
}

// LoginRedirect returns the provider URL that starts an interactive login.
func (s *Service) LoginRedirect(ctx context.Context, req LoginRequest) (redirectURL string, err error) {
	defer func() { s.metrics.observe(FlowRedirect, err) }()

	prompt, hint := req.Prompt, req.LoginHint
	if prompt == "" {
		var sessionHint string
		prompt, sessionHint, err = s.decidePrompt(ctx, req.SessionToken)
		if err != nil {
			return "", err
		}
		if hint == "" {
			hint = sessionHint
		}
	}

	return s.authURL(stateEnvelope{Prompt: prompt}, prompt, hint)
}

// decidePrompt skips the account chooser when the browser already holds a
// session for a known user.
func (s *Service) decidePrompt(ctx context.Context, sessionToken string) (prompt, hint string, err error) {
	if sessionToken == "" {
		return PromptSelectAccount, "", nil
	}

	user, err := s.deps.Sessions.Get(ctx, sessionToken)
	if err != nil {
		return "", "", fmt.Errorf("[auth.Service.decidePrompt] %w", err)
	}
	if user != nil && user.IsActive {
		return PromptNone, user.Email, nil
	}

	raw, err := s.deps.Sessions.Lookup(ctx, sessionToken)
	if err != nil {
		return "", "", fmt.Errorf("[auth.Service.decidePrompt] %w", err)
	}
	if raw == nil {
		return PromptSelectAccount, "", nil
	}

	known, err := s.deps.Users.GetByEmail(ctx, raw.UserEmail)
	switch {
	case errors.Is(err, errors.ErrUserNotFound):
		return PromptSelectAccount, "", nil
	case err != nil:
		return "", "", fmt.Errorf("[auth.Service.decidePrompt] %w", err)
	}
	return PromptNone, known.Email, nil
}

// SilentLoginRedirect asks the provider to log email in without showing any UI.
func (s *Service) SilentLoginRedirect(ctx context.Context, email string) (redirectURL string, err error) {
	defer func() { s.metrics.observe(FlowSilent, err) }()

	if email == "" {
		return "", errors.Wrapf(errors.ErrInvalidRequest, "email is required")
	}
	return s.authURL(stateEnvelope{Email: email}, PromptNone, email)
}

func (s *Service) authURL(env stateEnvelope, prompt, hint string) (string, error) {
	verifier, challenge, err := pkce.GenerateVerifierChallenge()
	if err != nil {
		return "", fmt.Errorf("[auth.Service.authURL] %w", err)
	}
	nonce, err := pkce.GenerateNonce()
	if err != nil {
		return "", fmt.Errorf("[auth.Service.authURL] %w", err)
	}

	env.CodeVerifier = verifier
	env.Nonce = nonce
	state, err := encodeState(env)
	if err != nil {
		return "", err
	}

	return s.deps.Provider.AuthCodeURL(AuthRequest{
		State:         state,
		CodeChallenge: challenge,
		Nonce:         nonce,
		Prompt:        prompt,
		LoginHint:     hint,
	}), nil
}

type CallbackRequest struct {
	Code  string
	State string
	Error            string // error query parameter set by the provider
	ErrorDescription string
}

type CallbackResult struct {
	User         *users.User
	SessionToken string
}

// Callback completes the authorization code flow and starts a session.
func (s *Service) Callback(ctx context.Context, req CallbackRequest) (result *CallbackResult, err error) {
	defer func() { s.metrics.observe(FlowCallback, err) }()

	if req.Error != "" {
		return nil, &ProviderError{Code: req.Error, Description: req.ErrorDescription}
	}

	env, err := decodeState(req.State)
	if err != nil {
		return nil, err
	}
	if req.Code == "" {
		return nil, errors.Wrapf(errors.ErrStateDecode, "missing authorization code")
	}

	tok, err := s.deps.Provider.Exchange(ctx, req.Code, env.CodeVerifier, env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("[auth.Service.Callback] code exchange: %w", err)
	}

	user, err := s.userFromProvider(ctx, tok.AccessToken, tok.Subject)
	if err != nil {
		return nil, err
	}

	sessionToken, err := s.deps.Sessions.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("[auth.Service.Callback] %w", err)
	}

	log.Info().Str("user_id", user.ID).Str("prompt", env.Prompt).Msg("user logged in")
	return &CallbackResult{User: user, SessionToken: sessionToken}, nil
}

// userFromProvider loads the provider profile for the access token. When the
// token came with a verified id_token, subject must match the profile id.
func (s *Service) userFromProvider(ctx context.Context, providerAccessToken, subject string) (*users.User, error) {
	info, err := s.deps.Provider.UserInfo(ctx, providerAccessToken)
	if err != nil {
		return nil, fmt.Errorf("[auth.Service.userFromProvider] %w", err)
	}
	if subject != "" && info.ID != subject {
		return nil, errors.Join(errors.ErrProviderExchange, errors.ErrInvalidGrant,
			fmt.Errorf("[auth.Service.userFromProvider] id_token subject %q does not match profile %q", subject, info.ID))
	}

	user, err := s.deps.Users.GetOrCreate(ctx, users.Profile{
		GoogleID: info.ID,
		Email:    info.Email,
		Name:     info.Name,
		Picture:  info.Picture,
	})
	if err != nil {
		return nil, fmt.Errorf("[auth.Service.userFromProvider] %w", err)
	}
	if !user.IsActive {
		return nil, errors.Wrapf(errors.ErrUserInactive, "%s", user.Email)
	}
	return user, nil
}

type TokenPair struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	User         *users.User `json:"user"`
}

// ExchangeProviderToken trades a provider access token obtained by the
// client for local access and refresh tokens.
func (s *Service) ExchangeProviderToken(ctx context.Context, providerAccessToken string) (pair *TokenPair, err error) {
	defer func() { s.metrics.observe(FlowTokenExchange, err) }()

	if providerAccessToken == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "access_token is required")
	}

	user, err := s.userFromProvider(ctx, providerAccessToken, "")
	if err != nil {
		return nil, err
	}

	access, err := s.deps.Codec.IssueAccessToken(user.ID, user.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("[auth.Service.ExchangeProviderToken] %w", err)
	}
	refreshToken, err := s.deps.Codec.IssueRefreshToken(user.ID, user.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("[auth.Service.ExchangeProviderToken] %w", err)
	}
	if _, err := s.deps.RefreshTokens.Create(ctx, user.ID, refreshToken); err != nil {
		return nil, fmt.Errorf("[auth.Service.ExchangeProviderToken] %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    s.expiresIn(),
		User:         user,
	}, nil
}

func (s *Service) expiresIn() int {
	return int(s.deps.Codec.AccessTokenTTL() / time.Second)
}

type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Refresh issues a new access token for a valid, unrevoked refresh token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (resp *AccessTokenResponse, err error) {
	defer func() { s.metrics.observe(FlowRefresh, err) }()

	claims, err := s.deps.Codec.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	stored, err := s.deps.RefreshTokens.Get(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("[auth.Service.Refresh] %w", err)
	}
	if stored == nil {
		return nil, errors.Wrapf(errors.ErrSessionNotFound, "refresh token revoked or expired")
	}

	user, err := s.deps.Users.Get(ctx, claims.Subject)
	if errors.Is(err, errors.ErrUserNotFound) {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "subject no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("[auth.Service.Refresh] %w", err)
	}
	if !user.IsActive {
		return nil, errors.Wrapf(errors.ErrUserInactive, "%s", user.Email)
	}

	access, err := s.deps.Codec.IssueAccessToken(user.ID, user.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("[auth.Service.Refresh] %w", err)
	}
	return &AccessTokenResponse{AccessToken: access, TokenType: TokenTypeBearer, ExpiresIn: s.expiresIn()}, nil
}

// Revoke deactivates a refresh token; unknown tokens report false.
func (s *Service) Revoke(ctx context.Context, refreshToken string) (bool, error) {
	if refreshToken == "" {
		return false, errors.Wrapf(errors.ErrInvalidRequest, "refresh_token is required")
	}
	return s.deps.RefreshTokens.Revoke(ctx, refreshToken)
}

func (s *Service) Me(ctx context.Context, userID string) (*users.User, error) {
	return s.deps.Users.Get(ctx, userID)
}

type SessionResponse struct {
	User        *users.User `json:"user"`
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
}

// SessionTokens resolves a cookie session and mints an access token for it.
func (s *Service) SessionTokens(ctx context.Context, sessionToken string) (*SessionResponse, error) {
	user, err := s.deps.Sessions.Get(ctx, sessionToken)
	if err != nil {
		return nil, fmt.Errorf("[auth.Service.SessionTokens] %w", err)
	}
	if user == nil {
		return nil, errors.ErrSessionNotFound
	}
	if !user.IsActive {
		return nil, errors.Wrapf(errors.ErrUserInactive, "%s", user.Email)
	}

	access, err := s.deps.Codec.IssueAccessToken(user.ID, user.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("[auth.Service.SessionTokens] %w", err)
	}
	return &SessionResponse{User: user, AccessToken: access, TokenType: TokenTypeBearer, ExpiresIn: s.expiresIn()}, nil
}

// Logout ends every session and refresh token of the session's user. Only an
// active session authenticates the call; unknown, superseded, revoked or
// expired sessions change nothing.
func (s *Service) Logout(ctx context.Context, sessionToken string) error {
	user, err := s.deps.Sessions.Get(ctx, sessionToken)
	if err != nil {
		return fmt.Errorf("[auth.Service.Logout] %w", err)
	}
	if user == nil {
		return nil
	}

	if _, err := s.deps.Sessions.RevokeUser(ctx, user.ID); err != nil {
		return fmt.Errorf("[auth.Service.Logout] %w", err)
	}
	if _, err := s.deps.RefreshTokens.RevokeAllForUser(ctx, user.ID); err != nil {
		return fmt.Errorf("[auth.Service.Logout] %w", err)
	}
	log.Info().Str("user_id", user.ID).Msg("user logged out")
	return nil
}

package auth_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/synco-server/auth"
	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/jrsteele09/synco-server/pkce"
	"github.com/jrsteele09/synco-server/sessions"
	"github.com/jrsteele09/synco-server/sessions/repofakes"
	"github.com/jrsteele09/synco-server/token"
	"github.com/jrsteele09/synco-server/token/refresh"
	refreshrepofake "github.com/jrsteele09/synco-server/token/refresh/repofake"
	"github.com/jrsteele09/synco-server/users"
	fakeuserrepo "github.com/jrsteele09/synco-server/users/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	testGoogleID = "google-1"
	testEmail    = "ann@example.com"
)

// fakeProvider records calls and hands out a fixed identity.
type fakeProvider struct {
	user          auth.ProviderUser
	exchangeErr   error
	subject       string
	exchangeCalls int
	lastVerifier  string
	lastNonce     string
	lastRequest   auth.AuthRequest
}

func (p *fakeProvider) AuthCodeURL(req auth.AuthRequest) string {
	p.lastRequest = req
	q := url.Values{}
	q.Set("state", req.State)
	q.Set("code_challenge", req.CodeChallenge)
	q.Set("nonce", req.Nonce)
	if req.Prompt != "" {
		q.Set("prompt", req.Prompt)
	}
	if req.LoginHint != "" {
		q.Set("login_hint", req.LoginHint)
	}
	return "https://accounts.example.com/auth?" + q.Encode()
}

func (p *fakeProvider) Exchange(_ context.Context, _, verifier, nonce string) (*auth.ProviderToken, error) {
	p.exchangeCalls++
	p.lastVerifier = verifier
	p.lastNonce = nonce
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &auth.ProviderToken{AccessToken: "provider-access", Subject: p.subject}, nil
}

func (p *fakeProvider) UserInfo(_ context.Context, accessToken string) (*auth.ProviderUser, error) {
	if accessToken == "bad" {
		return nil, errors.Join(errors.ErrProviderExchange, errors.ErrInvalidGrant)
	}
	u := p.user
	return &u, nil
}

type testFixture struct {
	provider    *fakeProvider
	users       *users.Service
	sessionRepo *repofakes.FakeSessionRepo
	sessions    *sessions.Manager
	refreshRepo *refreshrepofake.FakeRefreshTokenRepo
	codec       *token.Codec
	registry    *prometheus.Registry
	service     *auth.Service
	now         time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		provider:    &fakeProvider{user: auth.ProviderUser{ID: testGoogleID, Email: testEmail, Name: "Ann"}},
		sessionRepo: repofakes.NewFakeSessionRepo(),
		refreshRepo: refreshrepofake.NewFakeRefreshTokenRepo(),
		registry:    prometheus.NewRegistry(),
		now:         time.Now().UTC(),
	}
	nowFunc := func() time.Time { return f.now }

	f.users = users.NewService(fakeuserrepo.NewFakeUserRepo())
	f.sessions = sessions.NewManager(f.sessionRepo, f.users, sessions.WithNowFunc(nowFunc))
	f.codec = token.NewCodec(token.NewHMACSigner("secret"), token.WithNowFunc(nowFunc))

	svc, err := auth.NewService(auth.Deps{
		Provider:      f.provider,
		Users:         f.users,
		Sessions:      f.sessions,
		RefreshTokens: refresh.NewManager(f.refreshRepo, f.codec.RefreshTokenTTL(), refresh.WithNowFunc(nowFunc)),
		Codec:         f.codec,
	}, auth.WithMetrics(auth.NewMetrics(f.registry)))
	require.NoError(t, err)
	f.service = svc
	return f
}

func (f *testFixture) login(t *testing.T) (*users.User, string) {
	t.Helper()
	redirect, err := f.service.LoginRedirect(context.Background(), auth.LoginRequest{})
	require.NoError(t, err)
	u, err := url.Parse(redirect)
	require.NoError(t, err)

	res, err := f.service.Callback(context.Background(), auth.CallbackRequest{Code: "code", State: u.Query().Get("state")})
	require.NoError(t, err)
	return res.User, res.SessionToken
}

func decodeStateParam(t *testing.T, redirect string) map[string]any {
	t.Helper()
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	b, err := base64.RawURLEncoding.DecodeString(u.Query().Get("state"))
	require.NoError(t, err)
	var env map[string]any
	require.NoError(t, json.Unmarshal(b, &env))
	return env
}

func TestNewService_RequiresDeps(t *testing.T) {
	_, err := auth.NewService(auth.Deps{})
	require.Error(t, err)
}

func TestLoginRedirect_PromptDecision(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	user, sessionToken := f.login(t)

	// a user whose session was later revoked
	other, err := f.users.GetOrCreate(ctx, users.Profile{GoogleID: "google-2", Email: "bob@example.com", Name: "Bob"})
	require.NoError(t, err)
	revokedToken, err := f.sessions.Create(ctx, other)
	require.NoError(t, err)
	_, err = f.sessions.Revoke(ctx, revokedToken)
	require.NoError(t, err)

	// a session whose email no longer resolves to a user
	require.NoError(t, f.sessionRepo.Insert(ctx, &sessions.Session{
		Token: "orphan", UserID: "gone", UserEmail: "gone@example.com",
		IsActive: true, ExpiresAt: f.now.Add(time.Hour),
	}))

	tests := []struct {
		name       string
		req        auth.LoginRequest
		wantPrompt string
		wantHint   string
	}{
		{"no cookie", auth.LoginRequest{}, auth.PromptSelectAccount, ""},
		{"valid session", auth.LoginRequest{SessionToken: sessionToken}, auth.PromptNone, user.Email},
		{"revoked session of known user", auth.LoginRequest{SessionToken: revokedToken}, auth.PromptNone, "bob@example.com"},
		{"session of unknown user", auth.LoginRequest{SessionToken: "orphan"}, auth.PromptSelectAccount, ""},
		{"unknown cookie", auth.LoginRequest{SessionToken: "garbage"}, auth.PromptSelectAccount, ""},
		{"explicit prompt wins", auth.LoginRequest{SessionToken: sessionToken, Prompt: auth.PromptConsent}, auth.PromptConsent, ""},
		{"explicit hint kept", auth.LoginRequest{LoginHint: "x@example.com"}, auth.PromptSelectAccount, "x@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			redirect, err := f.service.LoginRedirect(ctx, tt.req)
			require.NoError(t, err)
			require.Equal(t, tt.wantPrompt, f.provider.lastRequest.Prompt)
			require.Equal(t, tt.wantHint, f.provider.lastRequest.LoginHint)

			env := decodeStateParam(t, redirect)
			require.EqualValues(t, 1, env["v"])
			require.Equal(t, tt.wantPrompt, env["prompt"])
		})
	}
}

func TestLoginRedirect_FreshPKCEPerCall(t *testing.T) {
	f := setupTestFixture(t)

	first, err := f.service.LoginRedirect(context.Background(), auth.LoginRequest{})
	require.NoError(t, err)
	firstReq := f.provider.lastRequest
	second, err := f.service.LoginRedirect(context.Background(), auth.LoginRequest{})
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.NotEqual(t, firstReq.Nonce, f.provider.lastRequest.Nonce)

	env := decodeStateParam(t, second)
	require.Equal(t, pkce.ChallengeFor(env["code_verifier"].(string)), f.provider.lastRequest.CodeChallenge)
	require.Equal(t, f.provider.lastRequest.Nonce, env["nonce"])
}

func TestSilentLoginRedirect(t *testing.T) {
	f := setupTestFixture(t)

	redirect, err := f.service.SilentLoginRedirect(context.Background(), testEmail)
	require.NoError(t, err)
	require.Equal(t, auth.PromptNone, f.provider.lastRequest.Prompt)
	require.Equal(t, testEmail, f.provider.lastRequest.LoginHint)

	env := decodeStateParam(t, redirect)
	require.Equal(t, testEmail, env["email"])
	require.NotContains(t, env, "prompt")

	_, err = f.service.SilentLoginRedirect(context.Background(), "")
	require.ErrorIs(t, err, errors.ErrInvalidRequest)
}

func TestCallback_UsesVerifierFromState(t *testing.T) {
	f := setupTestFixture(t)

	redirect, err := f.service.LoginRedirect(context.Background(), auth.LoginRequest{})
	require.NoError(t, err)
	env := decodeStateParam(t, redirect)
	u, _ := url.Parse(redirect)

	res, err := f.service.Callback(context.Background(), auth.CallbackRequest{Code: "code", State: u.Query().Get("state")})
	require.NoError(t, err)
	require.Equal(t, env["code_verifier"], f.provider.lastVerifier)
	require.Equal(t, env["nonce"], f.provider.lastNonce)
	require.Equal(t, testEmail, res.User.Email)

	got, err := f.sessions.Get(context.Background(), res.SessionToken)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, got.ID)

	require.Equal(t, 1.0, loginCount(t, f.registry, auth.FlowCallback, "success"))
}

func loginCount(t *testing.T, reg *prometheus.Registry, flow, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "synco_auth_logins_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["flow"] == flow && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestCallback_TamperedStateNeverReachesProvider(t *testing.T) {
	f := setupTestFixture(t)

	badVersion, _ := json.Marshal(map[string]any{"v": 2, "code_verifier": "abc", "nonce": "n"})
	noVerifier, _ := json.Marshal(map[string]any{"v": 1, "nonce": "n"})

	for _, state := range []string{
		"",
		"not base64 !!",
		base64.RawURLEncoding.EncodeToString([]byte("not json")),
		base64.RawURLEncoding.EncodeToString(badVersion),
		base64.RawURLEncoding.EncodeToString(noVerifier),
	} {
		_, err := f.service.Callback(context.Background(), auth.CallbackRequest{Code: "code", State: state})
		require.ErrorIs(t, err, errors.ErrStateDecode, state)
	}
	require.Zero(t, f.provider.exchangeCalls)
	require.Equal(t, 5.0, loginCount(t, f.registry, auth.FlowCallback, "error"))
}

func TestCallback_ProviderErrors(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.service.Callback(ctx, auth.CallbackRequest{Error: "login_required"})
	require.ErrorIs(t, err, errors.ErrProviderReported)
	var providerErr *auth.ProviderError
	require.True(t, errors.As(err, &providerErr))
	require.Equal(t, "login_required", providerErr.Code)

	redirect, err := f.service.LoginRedirect(ctx, auth.LoginRequest{})
	require.NoError(t, err)
	u, _ := url.Parse(redirect)
	state := u.Query().Get("state")

	_, err = f.service.Callback(ctx, auth.CallbackRequest{State: state})
	require.ErrorIs(t, err, errors.ErrStateDecode)

	f.provider.exchangeErr = errors.Join(errors.ErrProviderExchange, errors.ErrInvalidGrant)
	_, err = f.service.Callback(ctx, auth.CallbackRequest{Code: "code", State: state})
	require.ErrorIs(t, err, errors.ErrProviderExchange)
	require.ErrorIs(t, err, errors.ErrInvalidGrant)
}

func TestCallback_SubjectMustMatchProfile(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	redirect, err := f.service.LoginRedirect(ctx, auth.LoginRequest{})
	require.NoError(t, err)
	u, _ := url.Parse(redirect)
	state := u.Query().Get("state")

	f.provider.subject = "someone-else"
	_, err = f.service.Callback(ctx, auth.CallbackRequest{Code: "code", State: state})
	require.ErrorIs(t, err, errors.ErrInvalidGrant)

	f.provider.subject = testGoogleID
	_, err = f.service.Callback(ctx, auth.CallbackRequest{Code: "code", State: state})
	require.NoError(t, err)
}

func TestCallback_InactiveUserRejected(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	user, _ := f.login(t)

	_, err := f.users.SetActive(ctx, user.ID, false)
	require.NoError(t, err)

	redirect, err := f.service.LoginRedirect(ctx, auth.LoginRequest{})
	require.NoError(t, err)
	u, _ := url.Parse(redirect)
	_, err = f.service.Callback(ctx, auth.CallbackRequest{Code: "code", State: u.Query().Get("state")})
	require.ErrorIs(t, err, errors.ErrUserInactive)
}

func TestExchangeProviderToken_NewUser(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.service.ExchangeProviderToken(ctx, "provider-access")
	require.NoError(t, err)
	require.Equal(t, "bearer", pair.TokenType)
	require.Equal(t, 86400, pair.ExpiresIn)
	require.Equal(t, testEmail, pair.User.Email)
	require.Empty(t, pair.User.Roles)
	require.NotNil(t, pair.User.Roles)

	identity, err := f.codec.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, pair.User.ID, identity.UserID)

	claims, err := f.codec.VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, token.TypeRefresh, claims.Type)

	active := f.refreshRepo.ActiveForUser(pair.User.ID)
	require.Len(t, active, 1)
	require.Equal(t, pair.RefreshToken, active[0].Token)

	_, err = f.service.ExchangeProviderToken(ctx, "bad")
	require.ErrorIs(t, err, errors.ErrInvalidGrant)

	_, err = f.service.ExchangeProviderToken(ctx, "")
	require.ErrorIs(t, err, errors.ErrInvalidRequest)
}

func TestRefresh(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.service.ExchangeProviderToken(ctx, "provider-access")
	require.NoError(t, err)

	resp, err := f.service.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "bearer", resp.TokenType)
	_, err = f.codec.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)

	_, err = f.service.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, errors.ErrInvalidToken)

	revoked, err := f.service.Revoke(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.True(t, revoked)

	_, err = f.service.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	revoked, err = f.service.Revoke(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRefresh_InactiveUser(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	pair, err := f.service.ExchangeProviderToken(ctx, "provider-access")
	require.NoError(t, err)
	_, err = f.users.SetActive(ctx, pair.User.ID, false)
	require.NoError(t, err)

	_, err = f.service.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, errors.ErrUserInactive)
}

func TestSessionTokensAndLogout(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	user, sessionToken := f.login(t)

	pair, err := f.service.ExchangeProviderToken(ctx, "provider-access")
	require.NoError(t, err)

	resp, err := f.service.SessionTokens(ctx, sessionToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, resp.User.ID)
	identity, err := f.codec.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, identity.UserID)

	me, err := f.service.Me(ctx, identity.UserID)
	require.NoError(t, err)
	require.Equal(t, testEmail, me.Email)

	require.NoError(t, f.service.Logout(ctx, sessionToken))
	require.NoError(t, f.service.Logout(ctx, sessionToken))
	require.NoError(t, f.service.Logout(ctx, "unknown"))

	_, err = f.service.SessionTokens(ctx, sessionToken)
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	_, err = f.service.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
}

func TestLogout_SupersededSessionChangesNothing(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	_, first := f.login(t)
	user, second := f.login(t)

	pair, err := f.service.ExchangeProviderToken(ctx, "provider-access")
	require.NoError(t, err)

	_, err = f.service.SessionTokens(ctx, first)
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	require.NoError(t, f.service.Logout(ctx, first))

	resp, err := f.service.SessionTokens(ctx, second)
	require.NoError(t, err)
	require.Equal(t, user.ID, resp.User.ID)
	_, err = f.service.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
}

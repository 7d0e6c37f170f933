package google_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/synco-server/auth"
	"github.com/jrsteele09/synco-server/auth/google"
	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testClientID = "client"
	testNonce    = "nonce-1"
)

type fakeGoogle struct {
	t              *testing.T
	issuer         string
	key            *rsa.PrivateKey
	idClaims       jwt.MapClaims
	tokenStatus    int
	userInfoStatus int
	lastForm       url.Values
	lastAuth       string
}

func (f *fakeGoogle) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.lastForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		if f.tokenStatus != http.StatusOK {
			w.WriteHeader(f.tokenStatus)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "provider-access",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     f.idToken(),
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth = r.Header.Get("Authorization")
		if f.userInfoStatus != http.StatusOK {
			w.WriteHeader(f.userInfoStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(auth.ProviderUser{
			ID: "g-1", Email: "ann@example.com", Name: "Ann", Picture: "https://img/ann", VerifiedEmail: true,
		})
	})
	return mux
}

// idToken signs the default claims overlaid with idClaims. A nil claim value
// removes it.
func (f *fakeGoogle) idToken() string {
	claims := jwt.MapClaims{
		"iss":   f.issuer,
		"aud":   testClientID,
		"sub":   "g-1",
		"nonce": testNonce,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range f.idClaims {
		if v == nil {
			delete(claims, k)
			continue
		}
		claims[k] = v
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(f.key)
	require.NoError(f.t, err)
	return raw
}

func setupTestFixture(t *testing.T) (*google.Provider, *fakeGoogle) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	fake := &fakeGoogle{t: t, key: key, tokenStatus: http.StatusOK, userInfoStatus: http.StatusOK}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	fake.issuer = srv.URL

	p := google.New(google.Config{
		ClientID:     testClientID,
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/google/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		UserInfoURL: srv.URL + "/userinfo",
		HTTPClient:  srv.Client(),
		Issuer:      srv.URL,
		KeySet:      &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}},
	})
	return p, fake
}

func TestAuthCodeURL(t *testing.T) {
	p, _ := setupTestFixture(t)

	raw := p.AuthCodeURL(auth.AuthRequest{
		State:         "st",
		CodeChallenge: "ch",
		Nonce:         "n",
		Prompt:        auth.PromptNone,
		LoginHint:     "ann@example.com",
	})
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	require.Equal(t, "st", q.Get("state"))
	require.Equal(t, "ch", q.Get("code_challenge"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.Equal(t, "n", q.Get("nonce"))
	require.Equal(t, "none", q.Get("prompt"))
	require.Equal(t, "ann@example.com", q.Get("login_hint"))
	require.Equal(t, "openid email profile", q.Get("scope"))
	require.Equal(t, "code", q.Get("response_type"))
}

func TestExchange_SendsVerifier(t *testing.T) {
	p, fake := setupTestFixture(t)

	tok, err := p.Exchange(context.Background(), "code-1", "verifier-1", testNonce)
	require.NoError(t, err)
	require.Equal(t, "provider-access", tok.AccessToken)
	require.Equal(t, "g-1", tok.Subject)
	require.Equal(t, "code-1", fake.lastForm.Get("code"))
	require.Equal(t, "verifier-1", fake.lastForm.Get("code_verifier"))
}

func TestExchange_ClassifiesFailures(t *testing.T) {
	p, fake := setupTestFixture(t)

	fake.tokenStatus = http.StatusBadRequest
	_, err := p.Exchange(context.Background(), "bad", "v", testNonce)
	require.ErrorIs(t, err, errors.ErrProviderExchange)
	require.ErrorIs(t, err, errors.ErrInvalidGrant)

	fake.tokenStatus = http.StatusBadGateway
	_, err = p.Exchange(context.Background(), "code", "v", testNonce)
	require.ErrorIs(t, err, errors.ErrProviderExchange)
	require.NotErrorIs(t, err, errors.ErrInvalidGrant)
}

func TestExchange_VerifiesIDToken(t *testing.T) {
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tests := []struct {
		name   string
		nonce  string
		claims jwt.MapClaims
		key    *rsa.PrivateKey
	}{
		{name: "nonce mismatch", nonce: "other-nonce"},
		{name: "missing nonce", nonce: testNonce, claims: jwt.MapClaims{"nonce": nil}},
		{name: "wrong audience", nonce: testNonce, claims: jwt.MapClaims{"aud": "someone-else"}},
		{name: "wrong issuer", nonce: testNonce, claims: jwt.MapClaims{"iss": "https://evil.example.com"}},
		{name: "expired", nonce: testNonce, claims: jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()}},
		{name: "unknown signing key", nonce: testNonce, key: otherKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, fake := setupTestFixture(t)
			fake.idClaims = tt.claims
			if tt.key != nil {
				fake.key = tt.key
			}

			_, err := p.Exchange(context.Background(), "code", "v", tt.nonce)
			require.ErrorIs(t, err, errors.ErrProviderExchange)
			require.ErrorIs(t, err, errors.ErrInvalidGrant)
		})
	}
}

func TestUserInfo(t *testing.T) {
	p, fake := setupTestFixture(t)

	user, err := p.UserInfo(context.Background(), "provider-access")
	require.NoError(t, err)
	require.Equal(t, "Bearer provider-access", fake.lastAuth)
	require.Equal(t, "g-1", user.ID)
	require.Equal(t, "ann@example.com", user.Email)
	require.True(t, user.VerifiedEmail)

	fake.userInfoStatus = http.StatusUnauthorized
	_, err = p.UserInfo(context.Background(), "expired")
	require.ErrorIs(t, err, errors.ErrInvalidGrant)
}

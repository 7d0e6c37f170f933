package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/synco-server/internal/errors"
)

// Type discriminates the two bearer token kinds.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

const (
	DefaultAccessTokenTTL  = 24 * time.Hour
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Claims carried by every bearer token.
type Claims struct {
	Email string `json:"email"`
	Type  Type   `json:"type"`
	jwt.RegisteredClaims
}

// Identity is the subject of a verified access token.
type Identity struct {
	UserID string
	Email  string
}

// Codec issues and verifies access and refresh tokens. It never consults a
// store; refresh token revocation lives in token/refresh.
type Codec struct {
	signer     Signer
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time
}

type CodecOption func(*Codec)

func WithTokenExpiry(accessTTL, refreshTTL time.Duration) CodecOption {
	return func(c *Codec) {
		c.accessTTL = accessTTL
		c.refreshTTL = refreshTTL
	}
}

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(signer Signer, options ...CodecOption) *Codec {
	c := &Codec{signer: signer}
	for _, opt := range options {
		opt(c)
	}

	if c.accessTTL <= 0 {
		c.accessTTL = DefaultAccessTokenTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = DefaultRefreshTokenTTL
	}
	if c.nowFunc == nil {
		c.nowFunc = time.Now
	}
	return c
}

// AccessTokenTTL is reported to clients as expires_in.
func (c *Codec) AccessTokenTTL() time.Duration {
	return c.accessTTL
}

func (c *Codec) RefreshTokenTTL() time.Duration {
	return c.refreshTTL
}

// IssueAccessToken signs an access token; ttl <= 0 uses the default.
func (c *Codec) IssueAccessToken(subjectID, email string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = c.accessTTL
	}
	return c.issue(subjectID, email, TypeAccess, ttl)
}

// IssueRefreshToken signs a refresh token; ttl <= 0 uses the default.
func (c *Codec) IssueRefreshToken(subjectID, email string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = c.refreshTTL
	}
	return c.issue(subjectID, email, TypeRefresh, ttl)
}

func (c *Codec) issue(subjectID, email string, typ Type, ttl time.Duration) (string, error) {
	now := c.nowFunc()
	claims := Claims{
		Email: email,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := c.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("[Codec.issue] %s token: %w", typ, err)
	}
	return signed, nil
}

// VerifyAccessToken returns the identity of a valid access token.
func (c *Codec) VerifyAccessToken(raw string) (*Identity, error) {
	claims, err := c.verify(raw, TypeAccess)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// VerifyRefreshToken checks signature, expiry and type only.
func (c *Codec) VerifyRefreshToken(raw string) (*Claims, error) {
	return c.verify(raw, TypeRefresh)
}

func (c *Codec) verify(raw string, want Type) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errors.ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, c.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Codec.verify] %v", err)
	}

	if claims.Type != want {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Codec.verify] expected %s token, got %q", want, claims.Type)
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "[Codec.verify] missing subject or email")
	}
	return claims, nil
}

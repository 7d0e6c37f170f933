package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/jrsteele09/synco-server/permissions"
	"github.com/jrsteele09/synco-server/token"
	"github.com/jrsteele09/synco-server/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyIdentity stores the verified access token identity
	ContextKeyIdentity ContextKey = "identity"
	// ContextKeyUser stores the loaded, active caller
	ContextKeyUser ContextKey = "user"
)

func identityFromContext(ctx context.Context) *token.Identity {
	identity, _ := ctx.Value(ContextKeyIdentity).(*token.Identity)
	return identity
}

func userFromContext(ctx context.Context) *users.User {
	user, _ := ctx.Value(ContextKeyUser).(*users.User)
	return user
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.Wrapf(errors.ErrInvalidToken, "missing Authorization header")
	}
	scheme, tok, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", errors.Wrapf(errors.ErrInvalidToken, "invalid Authorization header format")
	}
	if tok = strings.TrimSpace(tok); tok == "" {
		return "", errors.Wrapf(errors.ErrInvalidToken, "empty token")
	}
	return tok, nil
}

// RequireAuth validates the Bearer access token and stores its identity in
// the request context.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				writeError(w, r, err)
				return
			}
			identity, err := s.deps.Codec.VerifyAccessToken(raw)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireActiveUser loads the caller named by the token. Must run after
// RequireAuth.
func (s *Server) RequireActiveUser() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identity := identityFromContext(r.Context())
			if identity == nil {
				writeError(w, r, errors.ErrInvalidToken)
				return
			}

			user, err := s.deps.Users.Get(r.Context(), identity.UserID)
			if errors.Is(err, errors.ErrUserNotFound) {
				writeError(w, r, errors.Wrapf(errors.ErrInvalidToken, "subject no longer exists"))
				return
			}
			if err != nil {
				writeError(w, r, err)
				return
			}
			if !user.IsActive {
				writeError(w, r, errors.Wrapf(errors.ErrUserInactive, "%s", user.Email))
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequirePermission rejects callers that do not hold perm. Must run after
// RequireAuth.
func (s *Server) RequirePermission(perm permissions.Permission) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identity := identityFromContext(r.Context())
			if identity == nil {
				writeError(w, r, errors.ErrInvalidToken)
				return
			}
			if err := s.deps.Permissions.RequirePermission(r.Context(), identity.UserID, perm); err != nil {
				writeError(w, r, err)
				return
			}
			next(w, r)
		}
	}
}

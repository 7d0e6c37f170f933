package sessions

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/jrsteele09/synco-server/users"
	"github.com/rs/zerolog/log"
)

const DefaultMaxAge = 30 * 24 * time.Hour

// UserLookup resolves the user a session belongs to.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
}

type Manager struct {
	repo    Repo
	users   UserLookup
	maxAge  time.Duration
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

func WithMaxAge(maxAge time.Duration) ManagerOption {
	return func(m *Manager) {
		m.maxAge = maxAge
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func NewManager(repo Repo, userLookup UserLookup, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:    repo,
		users:   userLookup,
		maxAge:  DefaultMaxAge,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.maxAge <= 0 {
		m.maxAge = DefaultMaxAge
	}
	return m
}

func (m *Manager) MaxAge() time.Duration {
	return m.maxAge
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Create deactivates the user's active sessions and starts a new one.
// The deactivate and insert are separate store operations.
func (m *Manager) Create(ctx context.Context, user *users.User) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("[sessions.Manager.Create] %w", err)
	}

	if _, err := m.repo.DeactivateUser(ctx, user.ID); err != nil {
		return "", fmt.Errorf("[sessions.Manager.Create] failed to deactivate existing sessions: %w", err)
	}

	now := m.nowFunc().UTC()
	if err := m.repo.Insert(ctx, &Session{
		Token:     token,
		UserID:    user.ID,
		UserEmail: user.Email,
		IsActive:  true,
		ExpiresAt: now.Add(m.maxAge),
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return "", fmt.Errorf("[sessions.Manager.Create] failed to store session: %w", err)
	}
	return token, nil
}

// Get returns the session's user, or nil when the session is missing,
// expired, inactive or its user cannot be found.
func (m *Manager) Get(ctx context.Context, token string) (*users.User, error) {
	if token == "" {
		return nil, nil
	}

	s, err := m.repo.FindActive(ctx, token, m.nowFunc())
	if err != nil {
		return nil, fmt.Errorf("[sessions.Manager.Get] %w", err)
	}
	if s == nil {
		return nil, nil
	}

	user, err := m.users.GetByEmail(ctx, s.UserEmail)
	if errors.Is(err, errors.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[sessions.Manager.Get] %w", err)
	}
	return user, nil
}

// Lookup returns the raw session record in any state.
func (m *Manager) Lookup(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	s, err := m.repo.Find(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("[sessions.Manager.Lookup] %w", err)
	}
	return s, nil
}

func (m *Manager) Revoke(ctx context.Context, token string) (bool, error) {
	ok, err := m.repo.Deactivate(ctx, token)
	if err != nil {
		return false, fmt.Errorf("[sessions.Manager.Revoke] %w", err)
	}
	return ok, nil
}

func (m *Manager) RevokeUser(ctx context.Context, userID string) (bool, error) {
	n, err := m.repo.DeactivateUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("[sessions.Manager.RevokeUser] %w", err)
	}
	return n > 0, nil
}

func (m *Manager) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := m.repo.DeleteExpired(ctx, m.nowFunc())
	if err != nil {
		return 0, fmt.Errorf("[sessions.Manager.CleanupExpired] %w", err)
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("removed expired sessions")
	}
	return n, nil
}

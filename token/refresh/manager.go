package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Manager keeps at most one active refresh token per user.
type Manager struct {
	repo    Repo
	expiry  time.Duration
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func NewManager(repo Repo, expiry time.Duration, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:    repo,
		expiry:  expiry,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Create deactivates the user's existing tokens and stores the new one.
// The two steps are separate store calls; concurrent Creates for the same
// user can leave two active records.
func (m *Manager) Create(ctx context.Context, userID, token string) (*StoredRefreshToken, error) {
	if _, err := m.repo.DeactivateUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("[refresh.Manager.Create] failed to deactivate existing tokens: %w", err)
	}

	now := m.nowFunc()
	rt := &StoredRefreshToken{
		Token:     token,
		UserID:    userID,
		IsActive:  true,
		ExpiresAt: now.Add(m.expiry),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.repo.Insert(ctx, rt); err != nil {
		return nil, fmt.Errorf("[refresh.Manager.Create] failed to store refresh token: %w", err)
	}
	return rt, nil
}

// Get returns nil when the token is unknown, revoked or expired.
func (m *Manager) Get(ctx context.Context, token string) (*StoredRefreshToken, error) {
	rt, err := m.repo.FindActive(ctx, token, m.nowFunc())
	if err != nil {
		return nil, fmt.Errorf("[refresh.Manager.Get] %w", err)
	}
	return rt, nil
}

func (m *Manager) Revoke(ctx context.Context, token string) (bool, error) {
	ok, err := m.repo.Deactivate(ctx, token)
	if err != nil {
		return false, fmt.Errorf("[refresh.Manager.Revoke] %w", err)
	}
	return ok, nil
}

func (m *Manager) RevokeAllForUser(ctx context.Context, userID string) (bool, error) {
	n, err := m.repo.DeactivateUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("[refresh.Manager.RevokeAllForUser] %w", err)
	}
	return n > 0, nil
}

func (m *Manager) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := m.repo.DeleteExpired(ctx, m.nowFunc())
	if err != nil {
		return 0, fmt.Errorf("[refresh.Manager.CleanupExpired] %w", err)
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("removed expired refresh tokens")
	}
	return n, nil
}

package refreshrepofake

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/synco-server/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	tokens map[string]refresh.StoredRefreshToken
	lock   sync.RWMutex
}

func NewFakeRefreshTokenRepo() *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{
		tokens: make(map[string]refresh.StoredRefreshToken),
	}
}

func (tr *FakeRefreshTokenRepo) DeactivateUser(_ context.Context, userID string) (int64, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	var n int64
	for k, rt := range tr.tokens {
		if rt.UserID == userID && rt.IsActive {
			rt.IsActive = false
			rt.UpdatedAt = time.Now()
			tr.tokens[k] = rt
			n++
		}
	}
	return n, nil
}

func (tr *FakeRefreshTokenRepo) Insert(_ context.Context, rt *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tr.tokens[rt.Token] = *rt
	return nil
}

func (tr *FakeRefreshTokenRepo) FindActive(_ context.Context, token string, now time.Time) (*refresh.StoredRefreshToken, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	rt, ok := tr.tokens[token]
	if !ok || !rt.IsActive || !rt.ExpiresAt.After(now) {
		return nil, nil
	}
	return &rt, nil
}

func (tr *FakeRefreshTokenRepo) Deactivate(_ context.Context, token string) (bool, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rt, ok := tr.tokens[token]
	if !ok || !rt.IsActive {
		return false, nil
	}
	rt.IsActive = false
	tr.tokens[token] = rt
	return true, nil
}

func (tr *FakeRefreshTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	var n int64
	for k, rt := range tr.tokens {
		if !rt.ExpiresAt.After(now) {
			delete(tr.tokens, k)
			n++
		}
	}
	return n, nil
}

// ActiveForUser lists the user's active records; used by tests.
func (tr *FakeRefreshTokenRepo) ActiveForUser(userID string) []refresh.StoredRefreshToken {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	var active []refresh.StoredRefreshToken
	for _, rt := range tr.tokens {
		if rt.UserID == userID && rt.IsActive {
			active = append(active, rt)
		}
	}
	return active
}

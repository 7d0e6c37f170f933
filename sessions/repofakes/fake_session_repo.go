package repofakes

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/synco-server/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	sessions map[string]sessions.Session
	lock     sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]sessions.Session),
	}
}

func (r *FakeSessionRepo) DeactivateUser(_ context.Context, userID string) (int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var n int64
	for k, s := range r.sessions {
		if s.UserID == userID && s.IsActive {
			s.IsActive = false
			s.UpdatedAt = time.Now().UTC()
			r.sessions[k] = s
			n++
		}
	}
	return n, nil
}

func (r *FakeSessionRepo) Insert(_ context.Context, session *sessions.Session) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.sessions[session.Token] = *session
	return nil
}

func (r *FakeSessionRepo) FindActive(_ context.Context, token string, now time.Time) (*sessions.Session, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	s, ok := r.sessions[token]
	if !ok || !s.Valid(now) {
		return nil, nil
	}
	return &s, nil
}

func (r *FakeSessionRepo) Find(_ context.Context, token string) (*sessions.Session, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	s, ok := r.sessions[token]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *FakeSessionRepo) Deactivate(_ context.Context, token string) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	s, ok := r.sessions[token]
	if !ok || !s.IsActive {
		return false, nil
	}
	s.IsActive = false
	r.sessions[token] = s
	return true, nil
}

func (r *FakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	var n int64
	for k, s := range r.sessions {
		if !s.ExpiresAt.After(now) {
			delete(r.sessions, k)
			n++
		}
	}
	return n, nil
}

// ActiveForUser lists the user's active sessions.
func (r *FakeSessionRepo) ActiveForUser(userID string) []sessions.Session {
	r.lock.RLock()
	defer r.lock.RUnlock()

	var active []sessions.Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.IsActive {
			active = append(active, s)
		}
	}
	return active
}

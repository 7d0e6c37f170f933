package sessions

import (
	"context"
	"time"
)

// Session is a server-side login bound to one user and delivered as an
// opaque cookie value.
type Session struct {
	Token     string    `bson:"session_token" json:"session_token"`
	UserID    string    `bson:"user_id" json:"user_id"`
	UserEmail string    `bson:"user_email" json:"user_email"`
	IsActive  bool      `bson:"is_active" json:"is_active"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Valid reports whether the session is active and unexpired at now.
func (s *Session) Valid(now time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(now)
}

// Repo defines the interface for session storage operations.
type Repo interface {
	// DeactivateUser marks every active session of the user inactive.
	DeactivateUser(ctx context.Context, userID string) (int64, error)

	Insert(ctx context.Context, session *Session) error

	// FindActive returns nil, nil unless an active unexpired session matches.
	FindActive(ctx context.Context, token string, now time.Time) (*Session, error)

	// Find returns the record whatever its state, nil, nil when absent.
	Find(ctx context.Context, token string) (*Session, error)

	Deactivate(ctx context.Context, token string) (bool, error)

	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

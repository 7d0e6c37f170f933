package refresh

import (
	"context"
	"time"
)

// StoredRefreshToken is the server-side record of an issued refresh token.
// Token is the signed JWT handed to the client.
type StoredRefreshToken struct {
	Token     string    `bson:"token"`
	UserID    string    `bson:"user_id"`
	IsActive  bool      `bson:"is_active"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Repo persists refresh token records. Each call is a single atomic
// operation against the backing store.
type Repo interface {
	// DeactivateUser marks every active token of the user inactive.
	DeactivateUser(ctx context.Context, userID string) (int64, error)
	Insert(ctx context.Context, rt *StoredRefreshToken) error
	// FindActive returns nil, nil when no active unexpired record matches.
	FindActive(ctx context.Context, token string, now time.Time) (*StoredRefreshToken, error)
	Deactivate(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Package sessionreporedis stores sessions in Redis. Each session is a JSON
// value that expires with the session, plus a per-user set of tokens.
package sessionreporedis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/synco-server/sessions"
	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "synco:"

var _ sessions.Repo = (*Repo)(nil)

type Repo struct {
	client    redis.UniversalClient
	keyPrefix string
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func New(client redis.UniversalClient, keyPrefix string) *Repo {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Repo{client: client, keyPrefix: keyPrefix}
}

func (r *Repo) sessionKey(token string) string {
	return r.keyPrefix + "session:" + token
}

func (r *Repo) userKey(userID string) string {
	return r.keyPrefix + "user_sessions:" + userID
}

func (r *Repo) Insert(ctx context.Context, session *sessions.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("[sessionreporedis.Insert] marshal: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("[sessionreporedis.Insert] session already expired")
	}

	userKey := r.userKey(session.UserID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(session.Token), data, ttl)
		pipe.SAdd(ctx, userKey, session.Token)
		pipe.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("[sessionreporedis.Insert] %w", err)
	}
	return nil
}

func (r *Repo) Find(ctx context.Context, token string) (*sessions.Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[sessionreporedis.Find] %w", err)
	}

	var s sessions.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("[sessionreporedis.Find] decode: %w", err)
	}
	return &s, nil
}

func (r *Repo) FindActive(ctx context.Context, token string, now time.Time) (*sessions.Session, error) {
	s, err := r.Find(ctx, token)
	if err != nil || s == nil {
		return nil, err
	}
	if !s.Valid(now) {
		return nil, nil
	}
	return s, nil
}

// Deactivate keeps the record until its TTL runs out so Find can still see it.
func (r *Repo) Deactivate(ctx context.Context, token string) (bool, error) {
	s, err := r.Find(ctx, token)
	if err != nil {
		return false, err
	}
	if s == nil || !s.IsActive {
		return false, nil
	}

	s.IsActive = false
	s.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return false, fmt.Errorf("[sessionreporedis.Deactivate] marshal: %w", err)
	}
	if err := r.client.Set(ctx, r.sessionKey(token), data, redis.KeepTTL).Err(); err != nil {
		return false, fmt.Errorf("[sessionreporedis.Deactivate] %w", err)
	}
	return true, nil
}

func (r *Repo) DeactivateUser(ctx context.Context, userID string) (int64, error) {
	tokens, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("[sessionreporedis.DeactivateUser] %w", err)
	}

	var n int64
	for _, token := range tokens {
		s, err := r.Find(ctx, token)
		if err != nil {
			return n, err
		}
		if s == nil {
			// Expired; drop it from the index.
			_ = r.client.SRem(ctx, r.userKey(userID), token).Err()
			continue
		}
		ok, err := r.Deactivate(ctx, token)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// DeleteExpired is a no-op: session keys carry their own TTL.
func (r *Repo) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

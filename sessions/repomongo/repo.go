// Package sessionrepomongo stores sessions in the sessions collection.
package sessionrepomongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/synco-server/internal/mongodb"
	"github.com/jrsteele09/synco-server/sessions"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var _ sessions.Repo = (*Repo)(nil)

type Repo struct {
	coll *mongo.Collection
}

func New(db *mongo.Database) *Repo {
	return &Repo{coll: db.Collection(mongodb.SessionsCollection)}
}

func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_active", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("[sessionrepomongo.EnsureIndexes] %w", err)
	}
	return nil
}

func (r *Repo) DeactivateUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("[sessionrepomongo.DeactivateUser] %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *Repo) Insert(ctx context.Context, session *sessions.Session) error {
	if _, err := r.coll.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("[sessionrepomongo.Insert] %w", err)
	}
	return nil
}

func (r *Repo) findOne(ctx context.Context, filter bson.M) (*sessions.Session, error) {
	var s sessions.Session
	err := r.coll.FindOne(ctx, filter).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[sessionrepomongo.findOne] %w", err)
	}
	return &s, nil
}

func (r *Repo) FindActive(ctx context.Context, token string, now time.Time) (*sessions.Session, error) {
	return r.findOne(ctx, bson.M{
		"session_token": token,
		"is_active":     true,
		"expires_at":    bson.M{"$gt": now},
	})
}

func (r *Repo) Find(ctx context.Context, token string) (*sessions.Session, error) {
	return r.findOne(ctx, bson.M{"session_token": token})
}

func (r *Repo) Deactivate(ctx context.Context, token string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"session_token": token, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("[sessionrepomongo.Deactivate] %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *Repo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now}})
	if err != nil {
		return 0, fmt.Errorf("[sessionrepomongo.DeleteExpired] %w", err)
	}
	return res.DeletedCount, nil
}

// Package refreshrepomongo stores refresh tokens in the refresh_tokens collection.
package refreshrepomongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/synco-server/internal/mongodb"
	"github.com/jrsteele09/synco-server/token/refresh"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var _ refresh.Repo = (*Repo)(nil)

type Repo struct {
	coll *mongo.Collection
}

func New(db *mongo.Database) *Repo {
	return &Repo{coll: db.Collection(mongodb.RefreshTokensCollection)}
}

func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_active", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("[refreshrepomongo.EnsureIndexes] %w", err)
	}
	return nil
}

func (r *Repo) DeactivateUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, fmt.Errorf("[refreshrepomongo.DeactivateUser] %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *Repo) Insert(ctx context.Context, rt *refresh.StoredRefreshToken) error {
	if _, err := r.coll.InsertOne(ctx, rt); err != nil {
		return fmt.Errorf("[refreshrepomongo.Insert] %w", err)
	}
	return nil
}

func (r *Repo) FindActive(ctx context.Context, token string, now time.Time) (*refresh.StoredRefreshToken, error) {
	var rt refresh.StoredRefreshToken
	err := r.coll.FindOne(ctx, bson.M{
		"token":      token,
		"is_active":  true,
		"expires_at": bson.M{"$gt": now},
	}).Decode(&rt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[refreshrepomongo.FindActive] %w", err)
	}
	return &rt, nil
}

func (r *Repo) Deactivate(ctx context.Context, token string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"token": token, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, fmt.Errorf("[refreshrepomongo.Deactivate] %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *Repo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("[refreshrepomongo.DeleteExpired] %w", err)
	}
	return res.DeletedCount, nil
}

// Package userrepomongo stores users in the users collection.
package userrepomongo

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/jrsteele09/synco-server/internal/mongodb"
	"github.com/jrsteele09/synco-server/users"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var _ users.UserRepo = (*Repo)(nil)

type Repo struct {
	coll *mongo.Collection
}

func New(db *mongo.Database) *Repo {
	return &Repo{coll: db.Collection(mongodb.UsersCollection)}
}

func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "google_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("[userrepomongo.EnsureIndexes] %w", err)
	}
	return nil
}

func (r *Repo) Insert(ctx context.Context, user *users.User) error {
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.ErrUserExists
		}
		return fmt.Errorf("[userrepomongo.Insert] %w", err)
	}
	return nil
}

func (r *Repo) findOne(ctx context.Context, filter bson.M) (*users.User, error) {
	var u users.User
	err := r.coll.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[userrepomongo.findOne] %w", err)
	}
	return &u, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *Repo) GetByGoogleID(ctx context.Context, googleID string) (*users.User, error) {
	return r.findOne(ctx, bson.M{"google_id": googleID})
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *Repo) Update(ctx context.Context, id string, update users.Update) (*users.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	unset := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Picture != nil {
		if *update.Picture == "" {
			unset["picture"] = ""
		} else {
			set["picture"] = *update.Picture
		}
	}
	if update.Nickname != nil {
		set["nickname"] = *update.Nickname
	}
	if update.Roles != nil {
		set["roles"] = update.Roles
	}
	if update.IsActive != nil {
		set["is_active"] = *update.IsActive
	}

	doc := bson.M{"$set": set}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}

	var u users.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, doc,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("[userrepomongo.Update] %w", err)
	}
	return &u, nil
}

func (r *Repo) List(ctx context.Context, offset, limit int) ([]*users.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: 1}}).
			SetSkip(int64(offset)).
			SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("[userrepomongo.List] %w", err)
	}

	list := []*users.User{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("[userrepomongo.List] decode: %w", err)
	}
	return list, nil
}

// Package attendancerepomongo stores attendance in the event_attendance collection.
package attendancerepomongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/synco-server/attendance"
	"github.com/jrsteele09/synco-server/internal/mongodb"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var _ attendance.Repo = (*Repo)(nil)

type Repo struct {
	coll *mongo.Collection
}

func New(db *mongo.Database) *Repo {
	return &Repo{coll: db.Collection(mongodb.EventAttendanceCollection)}
}

func (r *Repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "event_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("[attendancerepomongo.EnsureIndexes] %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, eventID string) (*attendance.EventAttendance, error) {
	var a attendance.EventAttendance
	err := r.coll.FindOne(ctx, bson.M{"event_id": eventID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[attendancerepomongo.Get] %w", err)
	}
	return &a, nil
}

func (r *Repo) SetAttendance(ctx context.Context, eventID, name string, attending bool) (*attendance.EventAttendance, error) {
	add, remove := "attendees", "non_attendees"
	if !attending {
		add, remove = remove, add
	}
	now := time.Now().UTC()

	var a attendance.EventAttendance
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"event_id": eventID},
		bson.M{
			"$addToSet":    bson.M{add: name},
			"$pull":        bson.M{remove: name},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"created_at": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		return nil, fmt.Errorf("[attendancerepomongo.SetAttendance] %w", err)
	}
	return &a, nil
}

func (r *Repo) Remove(ctx context.Context, eventID, name string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"event_id": eventID, "$or": bson.A{
			bson.M{"attendees": name},
			bson.M{"non_attendees": name},
		}},
		bson.M{
			"$pull": bson.M{"attendees": name, "non_attendees": name},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("[attendancerepomongo.Remove] %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *Repo) Delete(ctx context.Context, eventID string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"event_id": eventID})
	if err != nil {
		return false, fmt.Errorf("[attendancerepomongo.Delete] %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *Repo) List(ctx context.Context, offset, limit int) ([]*attendance.EventAttendance, error) {
	cur, err := r.coll.Find(ctx, bson.M{},
		options.Find().
			SetSort(bson.D{{Key: "event_id", Value: 1}}).
			SetSkip(int64(offset)).
			SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("[attendancerepomongo.List] %w", err)
	}
	list := []*attendance.EventAttendance{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("[attendancerepomongo.List] decode: %w", err)
	}
	return list, nil
}

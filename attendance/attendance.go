// Package attendance records who will and will not attend calendar events.
package attendance

import (
	"context"
	"time"
)

// EventAttendance holds the display names marked for one event. A name is
// in at most one of the two lists.
type EventAttendance struct {
	EventID      string    `bson:"event_id" json:"event_id"`
	Attendees    []string  `bson:"attendees" json:"attendees"`
	NonAttendees []string  `bson:"non_attendees" json:"non_attendees"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

type Repo interface {
	// Get returns nil, nil when the event has no record.
	Get(ctx context.Context, eventID string) (*EventAttendance, error)

	// SetAttendance adds name to one list and removes it from the other in a
	// single update, creating the record if needed.
	SetAttendance(ctx context.Context, eventID, name string, attending bool) (*EventAttendance, error)

	// Remove takes name off both lists.
	Remove(ctx context.Context, eventID, name string) (bool, error)

	Delete(ctx context.Context, eventID string) (bool, error)

	List(ctx context.Context, offset, limit int) ([]*EventAttendance, error)
}

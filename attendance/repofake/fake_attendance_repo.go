package attendancerepofake

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/synco-server/attendance"
)

var _ attendance.Repo = (*FakeAttendanceRepo)(nil)

type FakeAttendanceRepo struct {
	events map[string]attendance.EventAttendance
	lock   sync.RWMutex
}

func NewFakeAttendanceRepo() *FakeAttendanceRepo {
	return &FakeAttendanceRepo{events: make(map[string]attendance.EventAttendance)}
}

func clone(a attendance.EventAttendance) *attendance.EventAttendance {
	a.Attendees = slices.Clone(a.Attendees)
	a.NonAttendees = slices.Clone(a.NonAttendees)
	return &a
}

func without(list []string, name string) []string {
	return slices.DeleteFunc(list, func(s string) bool { return s == name })
}

func (r *FakeAttendanceRepo) Get(_ context.Context, eventID string) (*attendance.EventAttendance, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	a, ok := r.events[eventID]
	if !ok {
		return nil, nil
	}
	return clone(a), nil
}

func (r *FakeAttendanceRepo) SetAttendance(_ context.Context, eventID, name string, attending bool) (*attendance.EventAttendance, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	now := time.Now().UTC()
	a, ok := r.events[eventID]
	if !ok {
		a = attendance.EventAttendance{EventID: eventID, CreatedAt: now}
	}

	if attending {
		a.NonAttendees = without(a.NonAttendees, name)
		if !slices.Contains(a.Attendees, name) {
			a.Attendees = append(a.Attendees, name)
		}
	} else {
		a.Attendees = without(a.Attendees, name)
		if !slices.Contains(a.NonAttendees, name) {
			a.NonAttendees = append(a.NonAttendees, name)
		}
	}
	a.UpdatedAt = now
	r.events[eventID] = a
	return clone(a), nil
}

func (r *FakeAttendanceRepo) Remove(_ context.Context, eventID, name string) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	a, ok := r.events[eventID]
	if !ok {
		return false, nil
	}
	before := len(a.Attendees) + len(a.NonAttendees)
	a.Attendees = without(a.Attendees, name)
	a.NonAttendees = without(a.NonAttendees, name)
	r.events[eventID] = a
	return len(a.Attendees)+len(a.NonAttendees) < before, nil
}

func (r *FakeAttendanceRepo) Delete(_ context.Context, eventID string) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.events[eventID]; !ok {
		return false, nil
	}
	delete(r.events, eventID)
	return true, nil
}

func (r *FakeAttendanceRepo) List(_ context.Context, offset, limit int) ([]*attendance.EventAttendance, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*attendance.EventAttendance, 0, len(r.events))
	for _, a := range r.events {
		list = append(list, clone(a))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].EventID < list[j].EventID })

	if offset >= len(list) {
		return []*attendance.EventAttendance{}, nil
	}
	return list[offset:min(offset+limit, len(list))], nil
}

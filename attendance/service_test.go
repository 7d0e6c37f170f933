package attendance_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/synco-server/attendance"
	attendancerepofake "github.com/jrsteele09/synco-server/attendance/repofake"
	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/stretchr/testify/require"
)

func setupTestFixture(t *testing.T) *attendance.Service {
	t.Helper()
	return attendance.NewService(attendancerepofake.NewFakeAttendanceRepo())
}

func TestMark_MovesBetweenLists(t *testing.T) {
	svc := setupTestFixture(t)
	ctx := context.Background()

	s, err := svc.Mark(ctx, "ev1", "Ann", true)
	require.NoError(t, err)
	require.Equal(t, []string{"Ann"}, s.Attendees)
	require.Equal(t, 1, s.TotalAttendees)
	require.Empty(t, s.NonAttendees)

	s, err = svc.Mark(ctx, "ev1", "Ann", true)
	require.NoError(t, err)
	require.Equal(t, 1, s.TotalAttendees)

	s, err = svc.Mark(ctx, "ev1", "Ann", false)
	require.NoError(t, err)
	require.Empty(t, s.Attendees)
	require.Equal(t, []string{"Ann"}, s.NonAttendees)
	require.Equal(t, 1, s.TotalNonAttendees)
	require.Contains(t, s.Message, "not attending")
}

func TestGet_EmptyEvent(t *testing.T) {
	svc := setupTestFixture(t)

	s, err := svc.Get(context.Background(), "unknown")
	require.NoError(t, err)
	require.Equal(t, "unknown", s.EventID)
	require.NotNil(t, s.Attendees)
	require.NotNil(t, s.NonAttendees)
	require.Zero(t, s.TotalAttendees)
}

func TestRemoveAndDelete(t *testing.T) {
	svc := setupTestFixture(t)
	ctx := context.Background()

	_, err := svc.Mark(ctx, "ev1", "Ann", true)
	require.NoError(t, err)
	_, err = svc.Mark(ctx, "ev1", "Bob", false)
	require.NoError(t, err)

	ok, err := svc.Remove(ctx, "ev1", "Bob")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Remove(ctx, "ev1", "Bob")
	require.NoError(t, err)
	require.False(t, ok)

	list, err := svc.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, []string{"Ann"}, list[0].Attendees)

	ok, err = svc.Delete(ctx, "ev1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Delete(ctx, "ev1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMark_Validation(t *testing.T) {
	svc := setupTestFixture(t)

	_, err := svc.Mark(context.Background(), "", "Ann", true)
	require.ErrorIs(t, err, errors.ErrInvalidRequest)

	_, err = svc.Mark(context.Background(), "ev1", " ", true)
	require.ErrorIs(t, err, errors.ErrInvalidRequest)
}

package permissions_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/jrsteele09/synco-server/permissions"
	"github.com/jrsteele09/synco-server/users"
	fakeuserrepo "github.com/jrsteele09/synco-server/users/repofake"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	users   *users.Service
	checker *permissions.Checker
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	svc := users.NewService(fakeuserrepo.NewFakeUserRepo())
	return &testFixture{users: svc, checker: permissions.NewChecker(svc)}
}

func (f *testFixture) user(t *testing.T, googleID string, roles ...users.RoleType) *users.User {
	t.Helper()
	ctx := context.Background()
	u, err := f.users.GetOrCreate(ctx, users.Profile{GoogleID: googleID, Email: googleID + "@example.com", Name: googleID})
	require.NoError(t, err)
	u, err = f.users.SetRoles(ctx, u.ID, roles)
	require.NoError(t, err)
	return u
}

func TestVisitor(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	u := f.user(t, "visitor")

	ok, err := f.checker.CheckPermission(ctx, u.ID, permissions.EventsView)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.checker.CheckPermission(ctx, u.ID, permissions.AttendanceSelf)
	require.NoError(t, err)
	require.False(t, ok)

	err = f.checker.RequireAdmin(ctx, u.ID)
	require.ErrorIs(t, err, errors.ErrForbidden)
	require.Contains(t, err.Error(), "users.manage_roles")
}

func TestAdmin(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	u := f.user(t, "admin", users.RoleAdmin)

	require.NoError(t, f.checker.RequireAdmin(ctx, u.ID))
	require.NoError(t, f.checker.RequirePermission(ctx, u.ID, permissions.CalendarManage))

	ok, err := f.checker.CheckPermission(ctx, u.ID, permissions.AttendanceSelf)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.checker.CheckPermission(ctx, u.ID, "events.fabricated")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRoleUnion(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	u := f.user(t, "coachplayer", users.RolePlayer, users.RoleCoach)

	for _, p := range []permissions.Permission{permissions.AttendanceSelf, permissions.AttendanceManage, permissions.UsersView} {
		ok, err := f.checker.CheckPermission(ctx, u.ID, p)
		require.NoError(t, err)
		require.True(t, ok, p)
	}

	ok, err := f.checker.CheckPermission(ctx, u.ID, permissions.UsersManageRoles)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInactiveAndMissingUsers(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	u := f.user(t, "admin", users.RoleAdmin)
	_, err := f.users.SetActive(ctx, u.ID, false)
	require.NoError(t, err)

	ok, err := f.checker.CheckPermission(ctx, u.ID, permissions.EventsView)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.checker.CheckPermission(ctx, "missing", permissions.EventsView)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCatalogue(t *testing.T) {
	require.Equal(t, []users.RoleType{users.RoleAdmin, users.RoleCoach, users.RolePlayer}, permissions.AvailableRoles())
	require.Equal(t, []permissions.Permission{permissions.EventsView}, permissions.VisitorPermissions())
	require.Len(t, permissions.RolePermissions(users.RoleAdmin), 11)
	require.Nil(t, permissions.RolePermissions("owner"))
	require.Equal(t,
		[]permissions.Permission{permissions.AttendanceSelf, permissions.EventsView},
		permissions.PermissionsFor([]users.RoleType{users.RolePlayer}))
}

func TestValidateRoles(t *testing.T) {
	require.NoError(t, permissions.ValidateRoles([]string{"admin", "coach", "player"}))
	require.NoError(t, permissions.ValidateRoles(nil))
	require.ErrorIs(t, permissions.ValidateRoles([]string{"player", "owner"}), errors.ErrUnknownRole)
}

// Package permissions maps roles to permissions and checks them for users.
package permissions

import (
	"context"
	"fmt"
	"slices"

	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/jrsteele09/synco-server/users"
)

type Permission string

const (
	UsersList        Permission = "users.list"
	UsersView        Permission = "users.view"
	UsersEdit        Permission = "users.edit"
	UsersDelete      Permission = "users.delete"
	UsersManageRoles Permission = "users.manage_roles"
	EventsCreate     Permission = "events.create"
	EventsEdit       Permission = "events.edit"
	EventsDelete     Permission = "events.delete"
	EventsView       Permission = "events.view"
	CalendarManage   Permission = "calendar.manage"
	AttendanceManage Permission = "attendance.manage"
	AttendanceSelf   Permission = "attendance.self"
)

var rolePermissions = map[users.RoleType][]Permission{
	users.RoleAdmin: {
		UsersList, UsersView, UsersEdit, UsersDelete, UsersManageRoles,
		EventsCreate, EventsEdit, EventsDelete, EventsView,
		CalendarManage, AttendanceManage,
	},
	users.RoleCoach: {
		UsersView, EventsCreate, EventsEdit, EventsView, AttendanceManage,
	},
	users.RolePlayer: {
		EventsView, AttendanceSelf,
	},
}

// Users with no roles are visitors.
var visitorPermissions = []Permission{EventsView}

func AvailableRoles() []users.RoleType {
	return slices.Clone(users.AllRoles)
}

// RolePermissions returns nil for an unknown role.
func RolePermissions(role users.RoleType) []Permission {
	return slices.Clone(rolePermissions[role])
}

func VisitorPermissions() []Permission {
	return slices.Clone(visitorPermissions)
}

// PermissionsFor returns the union of the permissions of roles, sorted.
func PermissionsFor(roles []users.RoleType) []Permission {
	if len(roles) == 0 {
		return VisitorPermissions()
	}
	var perms []Permission
	for _, r := range roles {
		for _, p := range rolePermissions[r] {
			if !slices.Contains(perms, p) {
				perms = append(perms, p)
			}
		}
	}
	slices.Sort(perms)
	return perms
}

// ValidateRoles fails with errors.ErrUnknownRole on the first unknown label.
func ValidateRoles(roles []string) error {
	for _, r := range roles {
		if !users.RoleType(r).Valid() {
			return errors.Wrapf(errors.ErrUnknownRole, "%q", r)
		}
	}
	return nil
}

type UserGetter interface {
	Get(ctx context.Context, id string) (*users.User, error)
}

type Checker struct {
	users UserGetter
}

func NewChecker(userGetter UserGetter) *Checker {
	return &Checker{users: userGetter}
}

// Allowed reports whether the user holds perm. Inactive users hold nothing.
func Allowed(user *users.User, perm Permission) bool {
	if user == nil || !user.IsActive {
		return false
	}
	return slices.Contains(PermissionsFor(user.Roles), perm)
}

// CheckPermission is false for a missing or inactive user.
func (c *Checker) CheckPermission(ctx context.Context, userID string, perm Permission) (bool, error) {
	user, err := c.users.Get(ctx, userID)
	if errors.Is(err, errors.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("[Checker.CheckPermission] %w", err)
	}
	return Allowed(user, perm), nil
}

func (c *Checker) RequirePermission(ctx context.Context, userID string, perm Permission) error {
	ok, err := c.CheckPermission(ctx, userID, perm)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(errors.ErrForbidden, "missing permission %s", perm)
	}
	return nil
}

func (c *Checker) RequireAdmin(ctx context.Context, userID string) error {
	return c.RequirePermission(ctx, userID, UsersManageRoles)
}

package users

import (
	"slices"
	"time"

	"github.com/jrsteele09/synco-server/internal/errors"
)

// RoleType is one of a closed set of role labels. A user with no roles is a visitor.
type RoleType string

const (
	RoleAdmin  RoleType = "admin"  // Manages users, roles, events and attendance
	RoleCoach  RoleType = "coach"  // Manages events and attendance
	RolePlayer RoleType = "player" // Marks their own attendance
)

// AllRoles lists the valid roles in display order.
var AllRoles = []RoleType{RoleAdmin, RoleCoach, RolePlayer}

func (r RoleType) Valid() bool {
	return slices.Contains(AllRoles, r)
}

type User struct {
	ID        string     `bson:"_id" json:"id"`
	GoogleID  string     `bson:"google_id" json:"google_id"`
	Email     string     `bson:"email" json:"email"`
	Name      string     `bson:"name" json:"name"`
	Picture   *string    `bson:"picture,omitempty" json:"picture"`
	Nickname  string     `bson:"nickname" json:"nickname"`
	Roles     []RoleType `bson:"roles" json:"roles"`
	IsActive  bool       `bson:"is_active" json:"is_active"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// DisplayName is the name shown in attendance lists.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}

func (u *User) HasRole(role RoleType) bool {
	return slices.Contains(u.Roles, role)
}

// Profile is the identity reported by the identity provider.
type Profile struct {
	GoogleID string
	Email    string
	Name     string
	Picture  string
}

// NormaliseRoles validates, de-duplicates and sorts roles. The result is never nil.
func NormaliseRoles(roles []RoleType) ([]RoleType, error) {
	out := make([]RoleType, 0, len(roles))
	for _, r := range roles {
		if !r.Valid() {
			return nil, errors.Wrapf(errors.ErrUnknownRole, "%q", r)
		}
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	slices.Sort(out)
	return out, nil
}

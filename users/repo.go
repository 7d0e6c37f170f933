package users

import "context"

// Update lists the fields to change; nil fields are left alone. An empty
// Picture clears the stored picture.
type Update struct {
	Name     *string
	Picture  *string
	Nickname *string
	Roles    []RoleType
	IsActive *bool
}

// UserRepo stores users. Lookups return errors.ErrUserNotFound when no
// document matches and Insert returns errors.ErrUserExists on a duplicate google id.
type UserRepo interface {
	Insert(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id string, update Update) (*User, error)
	List(ctx context.Context, offset, limit int) ([]*User, error)
}

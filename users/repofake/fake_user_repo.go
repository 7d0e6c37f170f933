package fakeuserrepo

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/jrsteele09/synco-server/internal/utils"
	"github.com/jrsteele09/synco-server/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users     map[string]users.User
	googleIDs map[string]string // google id to user id
	lock      sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:     make(map[string]users.User),
		googleIDs: make(map[string]string),
	}
}

func clone(u users.User) *users.User {
	u.Roles = slices.Clone(u.Roles)
	return &u
}

func (ur *FakeUserRepo) Insert(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.googleIDs[user.GoogleID]; ok {
		return errors.ErrUserExists
	}
	ur.users[user.ID] = *clone(*user)
	ur.googleIDs[user.GoogleID] = user.ID
	return nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return clone(u), nil
}

func (ur *FakeUserRepo) GetByGoogleID(ctx context.Context, googleID string) (*users.User, error) {
	ur.lock.RLock()
	id, ok := ur.googleIDs[googleID]
	ur.lock.RUnlock()
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return ur.GetByID(ctx, id)
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	for _, u := range ur.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (ur *FakeUserRepo) Update(_ context.Context, id string, update users.Update) (*users.User, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Picture != nil {
		u.Picture = utils.PtrOrNil(*update.Picture)
	}
	if update.Nickname != nil {
		u.Nickname = *update.Nickname
	}
	if update.Roles != nil {
		u.Roles = slices.Clone(update.Roles)
	}
	if update.IsActive != nil {
		u.IsActive = *update.IsActive
	}
	u.UpdatedAt = time.Now().UTC()
	ur.users[id] = u
	return clone(u), nil
}

func (ur *FakeUserRepo) List(_ context.Context, offset, limit int) ([]*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	list := make([]*users.User, 0, len(ur.users))
	for _, u := range ur.users {
		list = append(list, clone(u))
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})

	if offset >= len(list) {
		return []*users.User{}, nil
	}
	end := min(offset+limit, len(list))
	return list[offset:end], nil
}

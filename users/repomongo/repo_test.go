package userrepomongo_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/jrsteele09/synco-server/internal/mongodb/mongotest"
	"github.com/jrsteele09/synco-server/internal/utils"
	"github.com/jrsteele09/synco-server/users"
	userrepomongo "github.com/jrsteele09/synco-server/users/repomongo"
	"github.com/stretchr/testify/require"
)

func TestRepo_InsertUpdate(t *testing.T) {
	db := mongotest.NewTestDatabase(t)
	ctx := context.Background()
	repo := userrepomongo.New(db)
	require.NoError(t, repo.EnsureIndexes(ctx))

	u := &users.User{
		ID:        "u1",
		GoogleID:  "g1",
		Email:     "a@example.com",
		Name:      "Ann",
		Picture:   utils.Ptr("https://img/a"),
		Roles:     []users.RoleType{},
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Insert(ctx, u))
	require.ErrorIs(t, repo.Insert(ctx, &users.User{ID: "u2", GoogleID: "g1"}), errors.ErrUserExists)

	got, err := repo.GetByGoogleID(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, "a@example.com", got.Email)
	require.Empty(t, got.Roles)

	got, err = repo.Update(ctx, "u1", users.Update{
		Picture: utils.Ptr(""),
		Roles:   []users.RoleType{users.RoleCoach},
	})
	require.NoError(t, err)
	require.Nil(t, got.Picture)
	require.Equal(t, []users.RoleType{users.RoleCoach}, got.Roles)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, errors.ErrUserNotFound)

	list, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

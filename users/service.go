package users

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/synco-server/internal/errors"
	"github.com/jrsteele09/synco-server/internal/utils"
	"github.com/rs/zerolog/log"
)

const maxListLimit = 500

type Service struct {
	repo    UserRepo
	nowFunc func() time.Time
}

type ServiceOption func(*Service)

func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func NewService(repo UserRepo, options ...ServiceOption) *Service {
	s := &Service{repo: repo, nowFunc: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// GetOrCreate returns the user for the provider identity, creating it on
// first login. Name and picture follow the provider on later logins.
func (s *Service) GetOrCreate(ctx context.Context, profile Profile) (*User, error) {
	if profile.GoogleID == "" || profile.Email == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[users.Service.GetOrCreate] provider profile missing id or email")
	}

	user, err := s.repo.GetByGoogleID(ctx, profile.GoogleID)
	switch {
	case err == nil:
		return s.syncProfile(ctx, user, profile)
	case !errors.Is(err, errors.ErrUserNotFound):
		return nil, fmt.Errorf("[users.Service.GetOrCreate] %w", err)
	}

	now := s.nowFunc().UTC()
	user = &User{
		ID:        uuid.NewString(),
		GoogleID:  profile.GoogleID,
		Email:     profile.Email,
		Name:      profile.Name,
		Picture:   utils.PtrOrNil(profile.Picture),
		Roles:     []RoleType{},
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, user); err != nil {
		if errors.Is(err, errors.ErrUserExists) {
			// Lost a race with a concurrent first login.
			return s.repo.GetByGoogleID(ctx, profile.GoogleID)
		}
		return nil, fmt.Errorf("[users.Service.GetOrCreate] failed to create user: %w", err)
	}
	log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("created user")
	return user, nil
}

func (s *Service) syncProfile(ctx context.Context, user *User, profile Profile) (*User, error) {
	var upd Update
	changed := false
	if user.Name != profile.Name {
		upd.Name = utils.Ptr(profile.Name)
		changed = true
	}
	if !utils.EqualPtr(user.Picture, utils.PtrOrNil(profile.Picture)) {
		upd.Picture = utils.Ptr(profile.Picture)
		changed = true
	}
	if !changed {
		return user, nil
	}

	updated, err := s.repo.Update(ctx, user.ID, upd)
	if err != nil {
		return nil, fmt.Errorf("[users.Service.syncProfile] %w", err)
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) List(ctx context.Context, offset, limit int) ([]*User, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.List(ctx, offset, limit)
}

// SetRoles replaces the user's roles. Unknown labels fail with errors.ErrUnknownRole.
func (s *Service) SetRoles(ctx context.Context, id string, roles []RoleType) (*User, error) {
	normalised, err := NormaliseRoles(roles)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, Update{Roles: normalised})
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (*User, error) {
	return s.repo.Update(ctx, id, Update{IsActive: &active})
}

func (s *Service) SetNickname(ctx context.Context, id, nickname string) (*User, error) {
	return s.repo.Update(ctx, id, Update{Nickname: &nickname})
}

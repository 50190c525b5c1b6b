package service

import (
	"context"

	"github.com/kavehjam/go-rbac-service/internal/model"
	"github.com/kavehjam/go-rbac-service/internal/repository"
	"github.com/kavehjam/go-rbac-service/internal/utils"
)

// UserService covers administrative user management: paginated listing,
// lookups, creation with an explicit role set, profile updates and deletion.
type UserService struct {
	users      UserStore
	roles      RoleStore
	bcryptCost int
}

func NewUserService(users UserStore, roles RoleStore, bcryptCost int) *UserService {
	return &UserService{users: users, roles: roles, bcryptCost: bcryptCost}
}

// UserUpdate carries the optional profile mutations; nil fields are left
// untouched.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Enabled   *bool
}

// List returns one page of user projections plus the total user count.
// page is zero-based.
func (s *UserService) List(ctx context.Context, page, size int) ([]model.UserResponse, int, error) {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = 10
	}
	users, total, err := s.users.List(ctx, page*size, size)
	if err != nil {
		return nil, 0, err
	}
	out := make([]model.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, model.NewUserResponse(u))
	}
	return out, total, nil
}

// Get returns the projection of one user.
func (s *UserService) Get(ctx context.Context, id uint64) (model.UserResponse, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.UserResponse{}, err
	}
	return model.NewUserResponse(u), nil
}

// GetByEmail returns the projection of the user with the given email.
func (s *UserService) GetByEmail(ctx context.Context, email string) (model.UserResponse, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return model.UserResponse{}, err
	}
	return model.NewUserResponse(u), nil
}

// Create is the administrative path: the caller chooses the role set, which
// must name at least one existing role. Duplicate emails fail with
// ErrDuplicate, unknown roles with ErrNotFound.
func (s *UserService) Create(ctx context.Context, email, password, firstName, lastName string, roleIDs []uint64) (model.UserResponse, error) {
	if len(roleIDs) == 0 {
		return model.UserResponse{}, repository.ErrBadRequest
	}
	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.UserResponse{}, err
	}
	if taken {
		return model.UserResponse{}, repository.ErrDuplicate
	}
	for _, roleID := range roleIDs {
		if _, err := s.roles.RoleByID(ctx, roleID); err != nil {
			return model.UserResponse{}, err
		}
	}
	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return model.UserResponse{}, err
	}
	u, err := s.users.Create(ctx, model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Enabled:      true,
	}, roleIDs)
	if err != nil {
		return model.UserResponse{}, err
	}
	return model.NewUserResponse(u), nil
}

// Update applies the provided profile fields and returns the new projection.
func (s *UserService) Update(ctx context.Context, id uint64, upd UserUpdate) (model.UserResponse, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.UserResponse{}, err
	}
	if upd.FirstName != nil && *upd.FirstName != "" {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil && *upd.LastName != "" {
		u.LastName = *upd.LastName
	}
	if upd.Enabled != nil {
		u.Enabled = *upd.Enabled
	}
	u, err = s.users.Update(ctx, u)
	if err != nil {
		return model.UserResponse{}, err
	}
	return model.NewUserResponse(u), nil
}

// Delete removes a user. Role grants and refresh tokens go with it.
func (s *UserService) Delete(ctx context.Context, id uint64) error {
	return s.users.Delete(ctx, id)
}

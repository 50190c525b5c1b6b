package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kavehjam/go-rbac-service/internal/model"
	"github.com/kavehjam/go-rbac-service/internal/queue"
	"github.com/kavehjam/go-rbac-service/internal/repository"
)

// RoleService manages roles and the user/role relation. It enforces the
// grant invariants: no duplicate grant, no revoking an unheld role, a user
// always keeps at least one role, and a role still granted to anyone cannot
// be deleted.
type RoleService struct {
	roles  RoleStore
	users  UserStore
	events EventPublisher // nil disables audit events
}

func NewRoleService(roles RoleStore, users UserStore, events EventPublisher) *RoleService {
	return &RoleService{roles: roles, users: users, events: events}
}

// List returns every role.
func (s *RoleService) List(ctx context.Context) ([]model.RoleResponse, error) {
	roles, err := s.roles.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, model.NewRoleResponse(r))
	}
	return out, nil
}

// Get returns one role.
func (s *RoleService) Get(ctx context.Context, id uint64) (model.RoleResponse, error) {
	r, err := s.roles.RoleByID(ctx, id)
	if err != nil {
		return model.RoleResponse{}, err
	}
	return model.NewRoleResponse(r), nil
}

// Create adds a role. Names are trimmed and uppercased before the
// uniqueness check.
func (s *RoleService) Create(ctx context.Context, name, description string) (model.RoleResponse, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return model.RoleResponse{}, repository.ErrBadRequest
	}
	r, err := s.roles.CreateRole(ctx, model.Role{Name: name, Description: description})
	if err != nil {
		return model.RoleResponse{}, err
	}
	return model.NewRoleResponse(r), nil
}

// Assign grants a role to a user. Granting an already-held role fails with
// ErrBadRequest and leaves the role set unchanged.
func (s *RoleService) Assign(ctx context.Context, userID, roleID uint64) (model.UserResponse, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}
	r, err := s.roles.RoleByID(ctx, roleID)
	if err != nil {
		return model.UserResponse{}, err
	}
	if u.HasRole(r.Name) {
		return model.UserResponse{}, repository.ErrBadRequest
	}
	if err := s.users.AddRole(ctx, userID, roleID); err != nil {
		return model.UserResponse{}, err
	}
	s.publish(ctx, queue.EventRoleAssigned, u.Email, r.Name)
	u, err = s.users.GetByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}
	return model.NewUserResponse(u), nil
}

// Revoke removes a role from a user. Revoking a role the user lacks and
// revoking the only remaining role both fail with ErrBadRequest.
func (s *RoleService) Revoke(ctx context.Context, userID, roleID uint64) (model.UserResponse, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}
	r, err := s.roles.RoleByID(ctx, roleID)
	if err != nil {
		return model.UserResponse{}, err
	}
	if !u.HasRole(r.Name) {
		return model.UserResponse{}, repository.ErrBadRequest
	}
	if len(u.Roles) == 1 {
		// The last role cannot be removed while the user exists.
		return model.UserResponse{}, repository.ErrBadRequest
	}
	if err := s.users.RemoveRole(ctx, userID, roleID); err != nil {
		return model.UserResponse{}, err
	}
	s.publish(ctx, queue.EventRoleRevoked, u.Email, r.Name)
	u, err = s.users.GetByID(ctx, userID)
	if err != nil {
		return model.UserResponse{}, err
	}
	return model.NewUserResponse(u), nil
}

// Delete removes a role that no user holds anymore; otherwise it fails with
// ErrBadRequest.
func (s *RoleService) Delete(ctx context.Context, id uint64) error {
	if _, err := s.roles.RoleByID(ctx, id); err != nil {
		return err
	}
	n, err := s.roles.CountUsersWithRole(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return repository.ErrBadRequest
	}
	return s.roles.DeleteRole(ctx, id)
}

func (s *RoleService) publish(ctx context.Context, eventType, email, role string) {
	if s.events == nil {
		return
	}
	_ = s.events.PublishAuthEvent(ctx, queue.AuthEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Email:      email,
		Role:       role,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}

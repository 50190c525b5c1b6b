// Package service holds the business logic sitting between the HTTP handlers
// and the repositories: the auth orchestration (register/login/refresh/
// logout), user and role administration with their invariants, and the
// background sweep of expired refresh tokens.  Services accept store
// interfaces so the MySQL repositories and the in-memory store are
// interchangeable.
package service

import (
	"context"
	"time"

	"github.com/kavehjam/go-rbac-service/internal/model"
	"github.com/kavehjam/go-rbac-service/internal/queue"
	"github.com/kavehjam/go-rbac-service/internal/utils"
)

// UserStore is the persistence surface services need for users and the
// user/role join relation.
type UserStore interface {
	Create(ctx context.Context, u model.User, roleIDs []uint64) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context, offset, limit int) ([]model.User, int, error)
	Update(ctx context.Context, u model.User) (model.User, error)
	Delete(ctx context.Context, id uint64) error
	AddRole(ctx context.Context, userID, roleID uint64) error
	RemoveRole(ctx context.Context, userID, roleID uint64) error
}

// RoleStore is the persistence surface for roles.
type RoleStore interface {
	CreateRole(ctx context.Context, role model.Role) (model.Role, error)
	RoleByID(ctx context.Context, id uint64) (model.Role, error)
	RoleByName(ctx context.Context, name string) (model.Role, error)
	ListRoles(ctx context.Context) ([]model.Role, error)
	CountUsersWithRole(ctx context.Context, roleID uint64) (int, error)
	DeleteRole(ctx context.Context, id uint64) error
}

// RefreshTokenStore is the persistence surface for refresh tokens.  The
// store is the sole authority over revoked/expired state; IssueFor must be
// atomic per owner.
type RefreshTokenStore interface {
	IssueFor(ctx context.Context, userID uint64) (utils.RefreshToken, error)
	Verify(ctx context.Context, raw string) (model.RefreshToken, error)
	Revoke(ctx context.Context, raw string) error
	RevokeAllFor(ctx context.Context, userID uint64) error
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// EventPublisher pushes audit events to the message broker.  Implementations
// must be best-effort: a broker outage never fails an auth flow.
type EventPublisher interface {
	PublishAuthEvent(ctx context.Context, ev queue.AuthEvent) error
}

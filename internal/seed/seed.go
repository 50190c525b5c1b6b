// Package seed creates the fixed role set and the default administrator on
// startup. Seeding is idempotent; verification failure afterwards is the
// one condition that must abort the process, since no user can be created
// without the USER role.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/kavehjam/go-rbac-service/internal/model"
	"github.com/kavehjam/go-rbac-service/internal/repository"
	"github.com/kavehjam/go-rbac-service/internal/service"
	"github.com/kavehjam/go-rbac-service/internal/utils"
)

// Default admin credentials. The password is meant to be changed right
// after the first deployment.
const (
	AdminEmail    = "admin@example.com"
	adminPassword = "Admin@123"
)

var roleDescriptions = map[string]string{
	model.RoleAdmin:   "Administrator with full system access",
	model.RoleManager: "Manager with elevated permissions",
	model.RoleUser:    "Standard user with basic access",
}

// Run seeds the three fixed roles and the default admin account, then
// verifies the USER role resolves. A non-nil error means the service must
// not start.
func Run(ctx context.Context, roles service.RoleStore, users service.UserStore, bcryptCost int) error {
	if err := seedRoles(ctx, roles); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	if err := seedDefaultAdmin(ctx, roles, users, bcryptCost); err != nil {
		return fmt.Errorf("seed default admin: %w", err)
	}
	// Startup verification: registration depends on this lookup.
	if _, err := roles.RoleByName(ctx, model.RoleUser); err != nil {
		return fmt.Errorf("verify seeded USER role: %w", err)
	}
	return nil
}

func seedRoles(ctx context.Context, roles service.RoleStore) error {
	for _, name := range []string{model.RoleAdmin, model.RoleManager, model.RoleUser} {
		_, err := roles.RoleByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if _, err := roles.CreateRole(ctx, model.Role{Name: name, Description: roleDescriptions[name]}); err != nil {
			// A concurrent instance may have won the race; that is fine.
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return err
		}
		log.Printf("seed: created default role: %s", name)
	}
	return nil
}

func seedDefaultAdmin(ctx context.Context, roles service.RoleStore, users service.UserStore, bcryptCost int) error {
	exists, err := users.ExistsByEmail(ctx, AdminEmail)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	adminRole, err := roles.RoleByName(ctx, model.RoleAdmin)
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(adminPassword, bcryptCost)
	if err != nil {
		return err
	}
	if _, err := users.Create(ctx, model.User{
		Email:        AdminEmail,
		PasswordHash: hash,
		FirstName:    "System",
		LastName:     "Administrator",
		Enabled:      true,
	}, []uint64{adminRole.ID}); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}
	log.Printf("seed: created default admin user: %s", AdminEmail)
	log.Printf("seed: change the default admin password before going to production")
	return nil
}

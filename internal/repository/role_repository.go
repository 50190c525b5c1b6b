package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kavehjam/go-rbac-service/internal/model"
)

// RoleRepo provides CRUD operations on the roles table.  Role names are
// unique; usage counts come from the user_roles join so a role that is still
// granted to anyone can be refused deletion.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// CreateRole inserts a role.  The caller normalizes the name to uppercase.
func (r *RoleRepo) CreateRole(ctx context.Context, role model.Role) (model.Role, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO roles (name, description) VALUES (?,?)", role.Name, role.Description)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Role{}, ErrDuplicate
		}
		return model.Role{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Role{}, err
	}
	return r.RoleByID(ctx, uint64(id))
}

// RoleByID fetches a role by id.
func (r *RoleRepo) RoleByID(ctx context.Context, id uint64) (model.Role, error) {
	return r.getOne(ctx, "id=?", id)
}

// RoleByName fetches a role by its exact (uppercase) name.
func (r *RoleRepo) RoleByName(ctx context.Context, name string) (model.Role, error) {
	return r.getOne(ctx, "name=?", name)
}

func (r *RoleRepo) getOne(ctx context.Context, where string, arg interface{}) (model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,description,created_at FROM roles WHERE "+where+" LIMIT 1",
		arg).Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Role{}, ErrNotFound
	}
	if err != nil {
		return model.Role{}, err
	}
	return role, nil
}

// ListRoles returns every role ordered by name.
func (r *RoleRepo) ListRoles(ctx context.Context) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,name,description,created_at FROM roles ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CountUsersWithRole returns how many users currently hold the role.
func (r *RoleRepo) CountUsersWithRole(ctx context.Context, roleID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM user_roles WHERE role_id=?", roleID).Scan(&n)
	return n, err
}

// DeleteRole removes a role.  Callers must have verified it is no longer granted
// to any user.
func (r *RoleRepo) DeleteRole(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM roles WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

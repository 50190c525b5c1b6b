package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kavehjam/go-rbac-service/internal/model"
	"github.com/kavehjam/go-rbac-service/internal/repository"
	"github.com/kavehjam/go-rbac-service/internal/utils"
)

func newUserFixture(t *testing.T) (*UserService, *repository.InMemoryStore, uint64) {
	t.Helper()
	store := repository.NewInMemoryStore(7)
	userRole, err := store.CreateRole(context.Background(), model.Role{Name: model.RoleUser})
	require.NoError(t, err)
	return NewUserService(store, store, bcrypt.MinCost), store, userRole.ID
}

func TestUserCreate(t *testing.T) {
	svc, store, roleID := newUserFixture(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, "alice@x.com", "P@ssw0rd1", "Alice", "Smith", []uint64{roleID})
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", resp.Email)
	assert.Equal(t, []string{model.RoleUser}, resp.Roles)
	assert.True(t, resp.Enabled)

	u, err := store.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "P@ssw0rd1"))
}

func TestUserCreateValidation(t *testing.T) {
	svc, _, roleID := newUserFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice@x.com", "pw", "", "", nil)
	assert.ErrorIs(t, err, repository.ErrBadRequest, "role set is mandatory")

	_, err = svc.Create(ctx, "alice@x.com", "pw", "", "", []uint64{999})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Create(ctx, "alice@x.com", "pw", "", "", []uint64{roleID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "alice@x.com", "pw", "", "", []uint64{roleID})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserListPagination(t *testing.T) {
	svc, _, roleID := newUserFixture(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, fmt.Sprintf("u%d@x.com", i), "pw", "", "", []uint64{roleID})
		require.NoError(t, err)
	}

	page, total, err := svc.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "u0@x.com", page[0].Email)

	page, total, err = svc.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 1)
	assert.Equal(t, "u4@x.com", page[0].Email)

	// Negative page and zero size fall back to sane defaults.
	page, _, err = svc.List(ctx, -1, 0)
	require.NoError(t, err)
	assert.Len(t, page, 5)
}

func TestUserGet(t *testing.T) {
	svc, _, roleID := newUserFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice@x.com", "pw", "Alice", "", []uint64{roleID})
	require.NoError(t, err)

	byID, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", byID.Email)

	byEmail, err := svc.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = svc.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserUpdate(t *testing.T) {
	svc, _, roleID := newUserFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice@x.com", "pw", "Alice", "Smith", []uint64{roleID})
	require.NoError(t, err)

	first := "Alicia"
	disabled := false
	resp, err := svc.Update(ctx, created.ID, UserUpdate{FirstName: &first, Enabled: &disabled})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", resp.FirstName)
	assert.Equal(t, "Smith", resp.LastName, "untouched field survives")
	assert.False(t, resp.Enabled)

	empty := ""
	resp, err = svc.Update(ctx, created.ID, UserUpdate{FirstName: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", resp.FirstName, "empty strings do not clobber")

	_, err = svc.Update(ctx, 999, UserUpdate{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserDelete(t *testing.T) {
	svc, _, roleID := newUserFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice@x.com", "pw", "", "", []uint64{roleID})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), repository.ErrNotFound)
}

package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kavehjam/go-rbac-service/internal/model"
	"github.com/kavehjam/go-rbac-service/internal/utils"
)

// InMemoryStore implements the user, role and refresh token stores on plain
// maps behind one mutex. The user/role join relation and the token table
// share state, so a single store keeps the invariants (last role, role in
// use, one active token per owner) enforceable without a database. It backs
// the test suite and any deployment that does not need durability.
type InMemoryStore struct {
	mu      sync.RWMutex
	ttlDays int

	users   map[uint64]model.User          // by id, Roles left nil (resolved via grants)
	roles   map[uint64]model.Role          // by id
	grants  map[uint64]map[uint64]struct{} // userID -> set of roleIDs
	tokens  map[string]model.RefreshToken  // by token hash
	userSeq uint64
	roleSeq uint64
	tokSeq  uint64
}

// NewInMemoryStore returns an empty store issuing refresh tokens with the
// given lifetime in days.
func NewInMemoryStore(refreshTTLDays int) *InMemoryStore {
	return &InMemoryStore{
		ttlDays: refreshTTLDays,
		users:   make(map[uint64]model.User),
		roles:   make(map[uint64]model.Role),
		grants:  make(map[uint64]map[uint64]struct{}),
		tokens:  make(map[string]model.RefreshToken),
	}
}

// ----- users -----

// Create inserts a user with its initial role grants.
func (s *InMemoryStore) Create(ctx context.Context, u model.User, roleIDs []uint64) (model.User, error) {
	if len(roleIDs) == 0 {
		return model.User{}, ErrBadRequest
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.User{}, ErrDuplicate
		}
	}
	for _, roleID := range roleIDs {
		if _, ok := s.roles[roleID]; !ok {
			return model.User{}, ErrNotFound
		}
	}
	s.userSeq++
	now := time.Now().UTC()
	u.ID = s.userSeq
	u.CreatedAt = now
	u.UpdatedAt = now
	u.Roles = nil
	s.users[u.ID] = u
	set := make(map[uint64]struct{}, len(roleIDs))
	for _, roleID := range roleIDs {
		set[roleID] = struct{}{}
	}
	s.grants[u.ID] = set
	return s.userWithRoles(u.ID)
}

// ExistsByEmail reports whether a user with the email exists.
func (s *InMemoryStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// GetByEmail fetches a user by email, including role names.
func (s *InMemoryStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, u := range s.users {
		if u.Email == email {
			return s.userWithRoles(id)
		}
	}
	return model.User{}, ErrNotFound
}

// GetByID fetches a user by id, including role names.
func (s *InMemoryStore) GetByID(ctx context.Context, id uint64) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.users[id]; !ok {
		return model.User{}, ErrNotFound
	}
	return s.userWithRoles(id)
}

// List returns one page of users ordered by id, plus the total count.
func (s *InMemoryStore) List(ctx context.Context, offset, limit int) ([]model.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]uint64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	total := len(ids)
	if offset >= total {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]model.User, 0, end-offset)
	for _, id := range ids[offset:end] {
		u, err := s.userWithRoles(id)
		if err != nil {
			return nil, 0, err
		}
		page = append(page, u)
	}
	return page, total, nil
}

// Update writes the mutable profile fields.
func (s *InMemoryStore) Update(ctx context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[u.ID]
	if !ok {
		return model.User{}, ErrNotFound
	}
	stored.FirstName = u.FirstName
	stored.LastName = u.LastName
	stored.Enabled = u.Enabled
	stored.UpdatedAt = time.Now().UTC()
	s.users[u.ID] = stored
	return s.userWithRoles(u.ID)
}

// Delete removes a user together with its grants and refresh tokens.
func (s *InMemoryStore) Delete(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	delete(s.grants, id)
	for hash, t := range s.tokens {
		if t.UserID == id {
			delete(s.tokens, hash)
		}
	}
	return nil
}

// AddRole grants a role to a user.
func (s *InMemoryStore) AddRole(ctx context.Context, userID, roleID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.grants[userID]
	if !ok {
		return ErrNotFound
	}
	if _, held := set[roleID]; held {
		return ErrBadRequest
	}
	set[roleID] = struct{}{}
	return nil
}

// RemoveRole revokes a role from a user.
func (s *InMemoryStore) RemoveRole(ctx context.Context, userID, roleID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.grants[userID]
	if !ok {
		return ErrNotFound
	}
	delete(set, roleID)
	return nil
}

// RolesForUser returns the names of the user's roles in name order.
func (s *InMemoryStore) RolesForUser(ctx context.Context, userID uint64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roleNames(userID), nil
}

// userWithRoles must be called with the lock held.
func (s *InMemoryStore) userWithRoles(id uint64) (model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	u.Roles = s.roleNames(id)
	return u, nil
}

func (s *InMemoryStore) roleNames(userID uint64) []string {
	var names []string
	for roleID := range s.grants[userID] {
		if role, ok := s.roles[roleID]; ok {
			names = append(names, role.Name)
		}
	}
	sort.Strings(names)
	return names
}

// ----- roles -----

// CreateRole inserts a role with a unique name.
func (s *InMemoryStore) CreateRole(ctx context.Context, role model.Role) (model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Name == role.Name {
			return model.Role{}, ErrDuplicate
		}
	}
	s.roleSeq++
	role.ID = s.roleSeq
	role.CreatedAt = time.Now().UTC()
	s.roles[role.ID] = role
	return role, nil
}

// RoleByID fetches a role by id.
func (s *InMemoryStore) RoleByID(ctx context.Context, id uint64) (model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.roles[id]
	if !ok {
		return model.Role{}, ErrNotFound
	}
	return role, nil
}

// RoleByName fetches a role by its exact name.
func (s *InMemoryStore) RoleByName(ctx context.Context, name string) (model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, role := range s.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return model.Role{}, ErrNotFound
}

// ListRoles returns every role in name order.
func (s *InMemoryStore) ListRoles(ctx context.Context) ([]model.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roles := make([]model.Role, 0, len(s.roles))
	for _, role := range s.roles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

// CountUsersWithRole returns how many users currently hold the role.
func (s *InMemoryStore) CountUsersWithRole(ctx context.Context, roleID uint64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, set := range s.grants {
		if _, ok := set[roleID]; ok {
			n++
		}
	}
	return n, nil
}

// DeleteRole removes a role.
func (s *InMemoryStore) DeleteRole(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		return ErrNotFound
	}
	delete(s.roles, id)
	return nil
}

// ----- refresh tokens -----

// IssueFor revokes every active token of the owner and issues a fresh one.
// The mutex gives the same all-or-nothing ordering the SQL transaction does.
func (s *InMemoryStore) IssueFor(ctx context.Context, userID uint64) (utils.RefreshToken, error) {
	token, err := utils.NewRefreshToken(s.ttlDays)
	if err != nil {
		return utils.RefreshToken{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for hash, t := range s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			rv := now
			t.RevokedAt = &rv
			s.tokens[hash] = t
		}
	}
	s.tokSeq++
	s.tokens[utils.HashRefreshRaw(token.Raw)] = model.RefreshToken{
		ID:        s.tokSeq,
		UserID:    userID,
		TokenHash: utils.HashRefreshRaw(token.Raw),
		ExpiresAt: token.Exp,
		CreatedAt: now,
	}
	return token, nil
}

// Verify resolves a raw token string; expired tokens are deleted on read.
func (s *InMemoryStore) Verify(ctx context.Context, raw string) (model.RefreshToken, error) {
	hash := utils.HashRefreshRaw(raw)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[hash]
	if !ok {
		return model.RefreshToken{}, ErrInvalidToken
	}
	if t.RevokedAt != nil {
		return model.RefreshToken{}, ErrInvalidToken
	}
	if t.Expired(time.Now().UTC()) {
		delete(s.tokens, hash)
		return model.RefreshToken{}, ErrInvalidToken
	}
	return t, nil
}

// Revoke marks a token revoked; unknown tokens are a no-op.
func (s *InMemoryStore) Revoke(ctx context.Context, raw string) error {
	hash := utils.HashRefreshRaw(raw)
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[hash]; ok && t.RevokedAt == nil {
		now := time.Now().UTC()
		t.RevokedAt = &now
		s.tokens[hash] = t
	}
	return nil
}

// RevokeAllFor revokes every active token owned by the user.
func (s *InMemoryStore) RevokeAllFor(ctx context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for hash, t := range s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			s.tokens[hash] = t
		}
	}
	return nil
}

// SweepExpired deletes every token expired relative to now.
func (s *InMemoryStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for hash, t := range s.tokens {
		if now.After(t.ExpiresAt) {
			delete(s.tokens, hash)
			n++
		}
	}
	return n, nil
}

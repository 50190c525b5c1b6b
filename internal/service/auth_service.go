package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/kavehjam/go-rbac-service/internal/model"
	"github.com/kavehjam/go-rbac-service/internal/queue"
	"github.com/kavehjam/go-rbac-service/internal/repository"
	"github.com/kavehjam/go-rbac-service/internal/utils"
)

// ErrAuthenticationFailed is returned by Login for a nonexistent email, a
// disabled account and a wrong password alike. Collapsing the three cases
// keeps the response from confirming which emails exist or which accounts
// are disabled; internal logs may still distinguish them.
var ErrAuthenticationFailed = errors.New("authentication failed")

// dummyHash is a valid bcrypt digest compared against when the email lookup
// misses, so the unknown-email and wrong-password paths cost roughly the
// same time.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// AuthResponse is the payload returned by register, login and refresh.
// ExpiresIn is the access token lifetime in seconds. The user projection is
// present for register/login and omitted on refresh.
type AuthResponse struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	TokenType    string              `json:"token_type"`
	ExpiresIn    int64               `json:"expires_in"`
	User         *model.UserResponse `json:"user,omitempty"`
}

// AuthService sequences credential verification, token issuance and refresh
// token rotation across the stores. It holds no per-request state; the
// signing secret and TTLs are immutable after construction.
type AuthService struct {
	users      UserStore
	roles      RoleStore
	tokens     RefreshTokenStore
	events     EventPublisher // nil disables audit events
	secret     string
	accessTTL  int // minutes
	bcryptCost int
}

// NewAuthService wires the orchestrator. events may be nil.
func NewAuthService(users UserStore, roles RoleStore, tokens RefreshTokenStore, events EventPublisher, secret string, accessTTLMin, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		roles:      roles,
		tokens:     tokens,
		events:     events,
		secret:     secret,
		accessTTL:  accessTTLMin,
		bcryptCost: bcryptCost,
	}
}

// AccessTokenTTL exposes the configured access token lifetime.
func (s *AuthService) AccessTokenTTL() time.Duration {
	return time.Duration(s.accessTTL) * time.Minute
}

// Register creates a user with the seeded USER role, enabled, and returns a
// full token pair. A taken email fails with repository.ErrDuplicate. A
// missing USER role means seeding never ran; it surfaces as a wrapped
// configuration error, not a client fault.
func (s *AuthService) Register(ctx context.Context, email, password, firstName, lastName string) (AuthResponse, error) {
	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return AuthResponse{}, err
	}
	if taken {
		return AuthResponse{}, repository.ErrDuplicate
	}

	userRole, err := s.roles.RoleByName(ctx, model.RoleUser)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("default USER role missing, seeding never ran: %w", err)
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return AuthResponse{}, err
	}
	u, err := s.users.Create(ctx, model.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Enabled:      true,
	}, []uint64{userRole.ID})
	if err != nil {
		return AuthResponse{}, err
	}

	resp, err := s.issuePair(ctx, u, true)
	if err != nil {
		return AuthResponse{}, err
	}
	s.publish(ctx, queue.EventUserRegistered, u.Email, "")
	return resp, nil
}

// Login verifies credentials and returns a fresh token pair. Issuing the
// refresh token revokes every prior token of the user as a side effect of
// the store's rotation contract.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn a comparison so the miss is not observably faster.
			utils.VerifyPassword(dummyHash, password)
			return AuthResponse{}, ErrAuthenticationFailed
		}
		return AuthResponse{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return AuthResponse{}, ErrAuthenticationFailed
	}
	if !u.Enabled {
		// Same outward failure as bad credentials; only the log differs.
		log.Printf("auth: login attempt on disabled account: %s", u.Email)
		return AuthResponse{}, ErrAuthenticationFailed
	}

	resp, err := s.issuePair(ctx, u, true)
	if err != nil {
		return AuthResponse{}, err
	}
	s.publish(ctx, queue.EventUserLogin, u.Email, "")
	return resp, nil
}

// Refresh exchanges a valid refresh token for a new pair. The access token
// reflects the user's current role set, not the set at original login, and
// the old refresh token is superseded by the rotation inside IssueFor. The
// user projection is omitted from the response.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResponse, error) {
	t, err := s.tokens.Verify(ctx, refreshToken)
	if err != nil {
		return AuthResponse{}, err
	}
	u, err := s.users.GetByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Owner deleted since issuance; the token is worthless.
			return AuthResponse{}, repository.ErrInvalidToken
		}
		return AuthResponse{}, err
	}
	return s.issuePair(ctx, u, false)
}

// Logout revokes the supplied refresh token. A missing, unknown or
// already-revoked token is not an error; logout always succeeds from the
// caller's perspective.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, refreshToken)
}

// issuePair mints an access token for the user's current roles and rotates
// the refresh token.
func (s *AuthService) issuePair(ctx context.Context, u model.User, withUser bool) (AuthResponse, error) {
	access, err := utils.NewAccessToken(s.secret, u.Email, u.Roles, s.accessTTL)
	if err != nil {
		return AuthResponse{}, err
	}
	refresh, err := s.tokens.IssueFor(ctx, u.ID)
	if err != nil {
		return AuthResponse{}, err
	}
	resp := AuthResponse{
		AccessToken:  access.Token,
		RefreshToken: refresh.Raw,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.AccessTokenTTL() / time.Second),
	}
	if withUser {
		proj := model.NewUserResponse(u)
		resp.User = &proj
	}
	return resp, nil
}

// publish emits an audit event when a publisher is configured. Failures are
// already logged by the publisher and never interrupt the flow.
func (s *AuthService) publish(ctx context.Context, eventType, email, role string) {
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

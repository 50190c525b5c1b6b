package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kavehjam/go-rbac-service/internal/config"
	"github.com/kavehjam/go-rbac-service/internal/handler"
	"github.com/kavehjam/go-rbac-service/internal/repository"
	"github.com/kavehjam/go-rbac-service/internal/router"
	"github.com/kavehjam/go-rbac-service/internal/seed"
	"github.com/kavehjam/go-rbac-service/internal/service"
)

const testSecret = "0123456789abcdef0123456789abcdef" // 32 bytes

// newTestApp assembles the full HTTP surface over an in-memory store, seeded
// exactly like a real boot.
func newTestApp(t *testing.T) (*echo.Echo, *repository.InMemoryStore) {
	t.Helper()
	store := repository.NewInMemoryStore(7)
	require.NoError(t, seed.Run(context.Background(), store, store, bcrypt.MinCost))

	authSvc := service.NewAuthService(store, store, store, nil, testSecret, 15, bcrypt.MinCost)
	userSvc := service.NewUserService(store, store, bcrypt.MinCost)
	roleSvc := service.NewRoleService(store, store, nil)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), config.RateLimitConfig{}, nil)
	router.RegisterAdmin(e, handler.NewUserHandler(userSvc), handler.NewRoleHandler(roleSvc), testSecret)
	router.RegisterResources(e, handler.NewResourceHandler(), testSecret)
	return e, store
}

func doJSON(e *echo.Echo, method, path, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *struct {
		ID    uint64   `json:"id"`
		Email string   `json:"email"`
		Roles []string `json:"roles"`
	} `json:"user"`
}

func decodePair(t *testing.T, rec *httptest.ResponseRecorder) tokenPair {
	t.Helper()
	var p tokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func registerAlice(t *testing.T, e *echo.Echo) tokenPair {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/v1/auth/register",
		`{"email":"alice@x.com","password":"P@ssw0rd1","first_name":"Alice","last_name":"Smith"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodePair(t, rec)
}

func loginAdmin(t *testing.T, e *echo.Echo) tokenPair {
	t.Helper()
	rec := doJSON(e, http.MethodPost, "/v1/auth/login",
		fmt.Sprintf(`{"email":%q,"password":"Admin@123"}`, seed.AdminEmail), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodePair(t, rec)
}

func TestHealthz(t *testing.T) {
	e, _ := newTestApp(t)
	rec := doJSON(e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterEndpoint(t *testing.T) {
	e, _ := newTestApp(t)

	pair := registerAlice(t, e)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	require.NotNil(t, pair.User)
	assert.Equal(t, "alice@x.com", pair.User.Email)
	assert.Equal(t, []string{"USER"}, pair.User.Roles)

	// Same email again conflicts.
	rec := doJSON(e, http.MethodPost, "/v1/auth/register",
		`{"email":"alice@x.com","password":"Other@123"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Missing fields never reach the service.
	rec = doJSON(e, http.MethodPost, "/v1/auth/register", `{"email":"","password":"x"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(e, http.MethodPost, "/v1/auth/register", `{not json`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginEndpoint(t *testing.T) {
	e, _ := newTestApp(t)
	registerAlice(t, e)

	rec := doJSON(e, http.MethodPost, "/v1/auth/login",
		`{"email":"alice@x.com","password":"P@ssw0rd1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	pair := decodePair(t, rec)
	require.NotNil(t, pair.User)
	assert.Equal(t, "alice@x.com", pair.User.Email)

	for _, body := range []string{
		`{"email":"alice@x.com","password":"wrong"}`,
		`{"email":"nobody@x.com","password":"P@ssw0rd1"}`,
	} {
		rec := doJSON(e, http.MethodPost, "/v1/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid credentials")
	}
}

func TestRefreshEndpoint(t *testing.T) {
	e, _ := newTestApp(t)
	pair := registerAlice(t, e)

	rec := doJSON(e, http.MethodPost, "/v1/auth/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, pair.RefreshToken), "")
	require.Equal(t, http.StatusOK, rec.Code)
	next := decodePair(t, rec)
	assert.Nil(t, next.User, "refresh responses carry no user projection")
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The consumed token is dead.
	rec = doJSON(e, http.MethodPost, "/v1/auth/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, pair.RefreshToken), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid refresh token")

	rec = doJSON(e, http.MethodPost, "/v1/auth/refresh", `{"refresh_token":""}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutEndpoint(t *testing.T) {
	e, _ := newTestApp(t)
	pair := registerAlice(t, e)

	rec := doJSON(e, http.MethodPost, "/v1/auth/logout",
		fmt.Sprintf(`{"refresh_token":%q}`, pair.RefreshToken), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodPost, "/v1/auth/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, pair.RefreshToken), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logout is always a 200, token or not.
	rec = doJSON(e, http.MethodPost, "/v1/auth/logout", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutViaHeader(t *testing.T) {
	e, _ := newTestApp(t)
	pair := registerAlice(t, e)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.Header.Set("X-Refresh-Token", pair.RefreshToken)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec2 := doJSON(e, http.MethodPost, "/v1/auth/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, pair.RefreshToken), "")
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
}

func TestAdminEndpoints(t *testing.T) {
	e, _ := newTestApp(t)
	admin := loginAdmin(t, e)
	alice := registerAlice(t, e)

	// Listing users requires ADMIN.
	rec := doJSON(e, http.MethodGet, "/v1/users", "", admin.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), seed.AdminEmail)
	assert.Contains(t, rec.Body.String(), "alice@x.com")

	rec = doJSON(e, http.MethodGet, "/v1/users", "", alice.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(e, http.MethodGet, "/v1/users", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Role CRUD and the grant flow.
	rec = doJSON(e, http.MethodGet, "/v1/roles", "", admin.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var roles []struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
	require.Len(t, roles, 3)

	var managerID uint64
	for _, r := range roles {
		if r.Name == "MANAGER" {
			managerID = r.ID
		}
	}
	require.NotZero(t, managerID)

	rec = doJSON(e, http.MethodPost, "/v1/roles/assign",
		fmt.Sprintf(`{"user_id":%d,"role_id":%d}`, alice.User.ID, managerID), admin.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Duplicate grant is a 400.
	rec = doJSON(e, http.MethodPost, "/v1/roles/assign",
		fmt.Sprintf(`{"user_id":%d,"role_id":%d}`, alice.User.ID, managerID), admin.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A role still granted cannot be deleted.
	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/v1/roles/%d", managerID), "", admin.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/v1/roles/revoke",
		fmt.Sprintf(`{"user_id":%d,"role_id":%d}`, alice.User.ID, managerID), admin.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/v1/roles/%d", managerID), "", admin.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	// User lookups.
	rec = doJSON(e, http.MethodGet, "/v1/users/email/alice@x.com", "", admin.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(e, http.MethodGet, "/v1/users/999", "", admin.AccessToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(e, http.MethodGet, "/v1/users/abc", "", admin.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResourceRoleMatrix(t *testing.T) {
	e, _ := newTestApp(t)
	admin := loginAdmin(t, e)
	alice := registerAlice(t, e)

	cases := []struct {
		path   string
		bearer string
		want   int
	}{
		{"/v1/resources/public", "", http.StatusOK},
		{"/v1/resources/dashboard", "", http.StatusUnauthorized},
		{"/v1/resources/dashboard", alice.AccessToken, http.StatusOK},
		{"/v1/resources/dashboard", admin.AccessToken, http.StatusOK},
		{"/v1/resources/reports", alice.AccessToken, http.StatusForbidden},
		{"/v1/resources/reports", admin.AccessToken, http.StatusOK},
		{"/v1/resources/admin-panel", alice.AccessToken, http.StatusForbidden},
		{"/v1/resources/admin-panel", admin.AccessToken, http.StatusOK},
	}
	for _, tc := range cases {
		rec := doJSON(e, http.MethodGet, tc.path, "", tc.bearer)
		assert.Equal(t, tc.want, rec.Code, "%s bearer=%v", tc.path, tc.bearer != "")
	}
}

func TestRefreshReflectsRoleChanges(t *testing.T) {
	e, _ := newTestApp(t)
	admin := loginAdmin(t, e)
	alice := registerAlice(t, e)

	// Reports is out of reach for a plain USER.
	rec := doJSON(e, http.MethodGet, "/v1/resources/reports", "", alice.AccessToken)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Grant MANAGER, then refresh: the new access token opens the door.
	rec = doJSON(e, http.MethodGet, "/v1/roles", "", admin.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var roles []struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
	var managerID uint64
	for _, r := range roles {
		if r.Name == "MANAGER" {
			managerID = r.ID
		}
	}
	rec = doJSON(e, http.MethodPost, "/v1/roles/assign",
		fmt.Sprintf(`{"user_id":%d,"role_id":%d}`, alice.User.ID, managerID), admin.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/v1/auth/refresh",
		fmt.Sprintf(`{"refresh_token":%q}`, alice.RefreshToken), "")
	require.Equal(t, http.StatusOK, rec.Code)
	next := decodePair(t, rec)

	rec = doJSON(e, http.MethodGet, "/v1/resources/reports", "", next.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

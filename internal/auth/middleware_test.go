package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/presaleshub/crm-api/internal/auth"
	"github.com/presaleshub/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubUserSource serves a fixed set of accounts
type stubUserSource struct {
	users map[uint]*domain.User
}

func (s *stubUserSource) GetWithRoles(ctx context.Context, id uint) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func newTestMiddleware(users map[uint]*domain.User) (*auth.Middleware, *auth.TokenManager) {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	resolver := auth.NewResolver(auth.DefaultRBACConfig())
	return auth.NewMiddleware(tokens, &stubUserSource{users: users}, resolver, zap.NewNop()), tokens
}

func activeUser(id uint, roles ...string) *domain.User {
	user := &domain.User{
		FullName: "Test User",
		Email:    "test@example.com",
		Status:   domain.UserStatusActive,
	}
	user.ID = id
	for _, role := range roles {
		user.Roles = append(user.Roles, domain.Role{Name: role})
	}
	return user
}

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_ValidToken(t *testing.T) {
	middleware, tokens := newTestMiddleware(map[uint]*domain.User{
		1: activeUser(1, "Presales Member"),
	})
	token, err := tokens.Issue(1, "test@example.com")
	require.NoError(t, err)

	var hit bool
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		userCtx, ok := auth.FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, uint(1), userCtx.UserID)
		assert.Equal(t, []string{"Presales Member"}, userCtx.Roles)
		assert.True(t, userCtx.Permissions.Allows("clients", "read"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, hit)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	middleware, _ := newTestMiddleware(nil)

	var hit bool
	handler := middleware.Authenticate(okHandler(&hit))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, hit)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_BadToken(t *testing.T) {
	middleware, _ := newTestMiddleware(nil)

	var hit bool
	handler := middleware.Authenticate(okHandler(&hit))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, hit)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticate_InactiveAccount(t *testing.T) {
	user := activeUser(1, "Presales Member")
	user.Status = domain.UserStatusInactive
	middleware, tokens := newTestMiddleware(map[uint]*domain.User{1: user})

	token, err := tokens.Issue(1, "test@example.com")
	require.NoError(t, err)

	var hit bool
	handler := middleware.Authenticate(okHandler(&hit))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, hit)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequirePermission_Granted(t *testing.T) {
	middleware, tokens := newTestMiddleware(map[uint]*domain.User{
		1: activeUser(1, "Presales Member"),
	})
	token, err := tokens.Issue(1, "test@example.com")
	require.NoError(t, err)

	var hit bool
	handler := middleware.Authenticate(
		middleware.RequirePermission("clients:write")(okHandler(&hit)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, hit)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePermission_Denied(t *testing.T) {
	middleware, tokens := newTestMiddleware(map[uint]*domain.User{
		1: activeUser(1, "Presales Lead"),
	})
	token, err := tokens.Issue(1, "test@example.com")
	require.NoError(t, err)

	var hit bool
	handler := middleware.Authenticate(
		middleware.RequirePermission("opportunities:write")(okHandler(&hit)))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/opportunities", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.False(t, hit)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequirePermission_ModuleOnlyStringNeedsWildcard(t *testing.T) {
	middleware, tokens := newTestMiddleware(map[uint]*domain.User{
		1: activeUser(1, "Presales Member"),
		2: activeUser(2, "Admin"),
	})

	var hit bool
	handler := middleware.Authenticate(
		middleware.RequirePermission("users")(okHandler(&hit)))

	// "users" expands to users:*, which only the admin wildcard satisfies
	memberToken, err := tokens.Issue(1, "test@example.com")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+memberToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, hit)

	adminToken, err := tokens.Issue(2, "admin@example.com")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, hit)
}

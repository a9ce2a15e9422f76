package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/presaleshub/crm-api/internal/domain"
	"go.uber.org/zap"
)

// UserSource loads an account with its role assignments for authentication
type UserSource interface {
	GetWithRoles(ctx context.Context, id uint) (*domain.User, error)
}

// Middleware handles authentication and permission checks for HTTP requests
type Middleware struct {
	tokens   *TokenManager
	users    UserSource
	resolver *Resolver
	logger   *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(tokens *TokenManager, users UserSource, resolver *Resolver, logger *zap.Logger) *Middleware {
	return &Middleware{
		tokens:   tokens,
		users:    users,
		resolver: resolver,
		logger:   logger,
	}
}

// Authenticate verifies the bearer token, loads the account and its roles,
// rejects inactive accounts, and attaches the resolved permission set to the
// request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(w, "invalid authorization header format")
			return
		}

		userID, err := m.tokens.Verify(parts[1])
		if err != nil {
			m.logger.Warn("token verification failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			unauthorized(w, "invalid or expired token")
			return
		}

		user, err := m.users.GetWithRoles(r.Context(), userID)
		if err != nil {
			m.logger.Warn("authenticated user not found",
				zap.Uint("user_id", userID),
				zap.Error(err),
			)
			unauthorized(w, "user not found")
			return
		}

		if user.Status != domain.UserStatusActive {
			unauthorized(w, "user account is not active")
			return
		}

		roleNames := make([]string, len(user.Roles))
		for i, role := range user.Roles {
			roleNames[i] = role.Name
		}

		userCtx := &UserContext{
			UserID:      user.ID,
			FullName:    user.FullName,
			Email:       user.Email,
			Roles:       roleNames,
			Permissions: m.resolver.Resolve(roleNames),
		}

		m.logger.Info("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Uint("user_id", user.ID),
			zap.Strings("roles", roleNames),
			zap.Duration("auth_duration", time.Since(start)),
		)

		ctx := WithUserContext(r.Context(), userCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission gates a route behind "module:action" permission strings.
// The action defaults to "*" when omitted. Every listed permission must hold;
// an empty list means authentication alone suffices.
func (m *Middleware) RequirePermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				unauthorized(w, "authentication required")
				return
			}

			for _, permission := range permissions {
				module, action := splitPermission(permission)
				if !userCtx.Permissions.Allows(module, action) {
					m.logger.Info("access denied",
						zap.Strings("roles", userCtx.Roles),
						zap.String("required_permission", permission),
						zap.String("path", r.URL.Path),
					)
					forbidden(w, "insufficient permissions to access this resource")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func splitPermission(permission string) (module, action string) {
	parts := strings.SplitN(permission, ":", 2)
	module = parts[0]
	action = "*"
	if len(parts) == 2 && parts[1] != "" {
		action = parts[1]
	}
	return module, action
}

func unauthorized(w http.ResponseWriter, message string) {
	respondError(w, http.StatusUnauthorized, "Unauthorized", message)
}

func forbidden(w http.ResponseWriter, message string) {
	respondError(w, http.StatusForbidden, "Forbidden", message)
}

func respondError(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + title + `","message":"` + message + `"}`))
}

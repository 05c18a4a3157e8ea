package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-task-tracker/internal/auth"
	"go-task-tracker/internal/model"
)

func newGate(t *testing.T) (*AuthMiddleware, *auth.TokenManager) {
	t.Helper()

	tokens, err := auth.NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return NewAuthMiddleware(tokens), tokens
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	gate, tokens := newGate(t)

	t.Run("missing token yields 401, never 403", func(t *testing.T) {
		rec := httptest.NewRecorder()
		gate.RequireAuth(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/todos", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header yields 401", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/todos", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		gate.RequireAuth(okHandler()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token yields 401", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/todos", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		gate.RequireAuth(okHandler()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token yields 401", func(t *testing.T) {
		expired, err := auth.NewTokenManager("access-secret", "refresh-secret", -time.Minute, time.Hour)
		require.NoError(t, err)
		token, err := expired.IssueAccess(1, "a@x.com", model.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/todos", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		gate.RequireAuth(okHandler()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token passes claims to the handler", func(t *testing.T) {
		token, err := tokens.IssueAccess(42, "a@x.com", model.RoleAdmin)
		require.NoError(t, err)

		var seen *auth.AccessClaims
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			require.True(t, ok)
			seen = claims
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest("GET", "/api/v1/todos", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		gate.RequireAuth(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, int64(42), seen.UserID)
		assert.Equal(t, "a@x.com", seen.Email)
		assert.Equal(t, model.RoleAdmin, seen.Role)
	})
}

func TestRequireRoles(t *testing.T) {
	t.Parallel()

	gate, tokens := newGate(t)

	protected := gate.RequireAuth(gate.RequireRoles(model.RoleAdmin)(okHandler()))

	t.Run("user role is forbidden on an admin route", func(t *testing.T) {
		token, err := tokens.IssueAccess(1, "u@x.com", model.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/admin/todos", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin role is allowed", func(t *testing.T) {
		token, err := tokens.IssueAccess(2, "a@x.com", model.RoleAdmin)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/admin/todos", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("anonymous request is 401, not 403", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/admin/todos", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("role set membership is exact", func(t *testing.T) {
		userOnly := gate.RequireAuth(gate.RequireRoles(model.RoleUser)(okHandler()))

		token, err := tokens.IssueAccess(2, "a@x.com", model.RoleAdmin)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/api/v1/todos", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		userOnly.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	t.Parallel()

	gate, tokens := newGate(t)

	handler := gate.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); ok {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("anonymous request passes through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("invalid token is treated as anonymous", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("valid token attaches claims", func(t *testing.T) {
		token, err := tokens.IssueAccess(1, "u@x.com", model.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-task-tracker/internal/auth"
	"go-task-tracker/internal/config"
	"go-task-tracker/internal/handler"
	"go-task-tracker/internal/middleware"
	"go-task-tracker/internal/model"
	"go-task-tracker/internal/router"
	"go-task-tracker/internal/service"
)

// memoryUserStore keeps the full stack testable without Postgres; the
// repository layer has its own coverage against a real database.
type memoryUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]model.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{nextID: 1, users: make(map[int64]model.User)}
}

func (s *memoryUserStore) Create(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return model.User{}, model.ErrEmailTaken
		}
		if strings.EqualFold(existing.Username, u.Username) {
			return model.User{}, model.ErrUsernameTaken
		}
	}

	now := time.Now().UTC()
	u.ID = s.nextID
	u.CreatedAt = now
	u.UpdatedAt = now
	s.nextID++
	s.users[u.ID] = u
	return u, nil
}

func (s *memoryUserStore) FindByID(_ context.Context, id int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memoryUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memoryUserStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memoryUserStore) FindByRefreshToken(_ context.Context, token string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.RefreshToken != nil && *u.RefreshToken == token {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memoryUserStore) UpdateRefreshToken(_ context.Context, userID int64, token *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.RefreshToken = token
	s.users[userID] = u
	return nil
}

func (s *memoryUserStore) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	s.users[userID] = u
	return nil
}

func (s *memoryUserStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memoryUserStore) List(_ context.Context, page int, limit int) ([]model.PublicUser, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.PublicUser, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Public())
	}
	return out, len(out), nil
}

type memoryTodoStore struct {
	mu     sync.Mutex
	nextID int64
	todos  map[int64]model.Todo
}

func newMemoryTodoStore() *memoryTodoStore {
	return &memoryTodoStore{nextID: 1, todos: make(map[int64]model.Todo)}
}

func (s *memoryTodoStore) Create(_ context.Context, ownerID int64, req model.CreateTodoRequest) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	todo := model.Todo{
		ID:          s.nextID,
		Title:       req.Title,
		Description: req.Description,
		Status:      model.TodoStatusPending,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextID++
	s.todos[todo.ID] = todo
	return todo, nil
}

func (s *memoryTodoStore) FindByID(_ context.Context, id int64, ownerID int64) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[id]
	if !ok || (ownerID != 0 && todo.UserID != ownerID) {
		return model.Todo{}, model.ErrTodoNotFound
	}
	return todo, nil
}

func (s *memoryTodoStore) List(_ context.Context, filter model.TodoFilter) ([]model.Todo, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Todo, 0)
	for _, todo := range s.todos {
		if filter.OwnerID != 0 && todo.UserID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && todo.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(todo.Title), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, todo)
	}
	return out, len(out), nil
}

func (s *memoryTodoStore) ListWithOwners(ctx context.Context, filter model.TodoFilter) ([]model.Todo, int, error) {
	return s.List(ctx, filter)
}

func (s *memoryTodoStore) Update(_ context.Context, id int64, ownerID int64, updates model.UpdateTodoRequest) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[id]
	if !ok || (ownerID != 0 && todo.UserID != ownerID) {
		return model.Todo{}, model.ErrTodoNotFound
	}
	if updates.Title != nil {
		todo.Title = *updates.Title
	}
	if updates.Description != nil {
		todo.Description = updates.Description
	}
	if updates.Status != nil {
		todo.Status = *updates.Status
	}
	todo.UpdatedAt = time.Now().UTC()
	s.todos[id] = todo
	return todo, nil
}

func (s *memoryTodoStore) Delete(_ context.Context, id int64, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[id]
	if !ok || (ownerID != 0 && todo.UserID != ownerID) {
		return model.ErrTodoNotFound
	}
	delete(s.todos, id)
	return nil
}

type memoryAuditStore struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (s *memoryAuditStore) Log(_ context.Context, entry model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memoryAuditStore) Query(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, *model.Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.AuditEntry, 0)
	for _, e := range s.entries {
		if query.Action != "" && e.Action != query.Action {
			continue
		}
		out = append(out, e)
	}
	return out, model.NewMeta(1, len(out)+1, len(out)), nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		ServerPort:       "8080",
		RequestTimeout:   30 * time.Second,
		JWTAccessSecret:  "integration-access-secret",
		JWTRefreshSecret: "integration-refresh-secret",
		JWTAccessTTL:     15 * time.Minute,
		JWTRefreshTTL:    time.Hour,
		BcryptCost:       4,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
	}

	tokens, err := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	require.NoError(t, err)

	auditService := service.NewAuditService(&memoryAuditStore{})
	authService := service.NewAuthService(newMemoryUserStore(), auth.NewPasswordHasher(cfg.BcryptCost), tokens, auditService)
	todoService := service.NewTodoService(newMemoryTodoStore(), auditService)

	mux := router.New(router.Dependencies{
		Config:       cfg,
		Auth:         middleware.NewAuthMiddleware(tokens),
		RateLimit:    middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM),
		AuthHandler:  handler.NewAuthHandler(authService),
		TodoHandler:  handler.NewTodoHandler(todoService),
		UserHandler:  handler.NewUserHandler(authService),
		AuditHandler: handler.NewAuditHandler(auditService),
		Health: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decodeData(t *testing.T, env envelope, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func registerAndLogin(t *testing.T, srv *httptest.Server, username, email, role string) model.AuthResponse {
	t.Helper()

	status, _ := doRequest(t, srv, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "password123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, status)

	status, env := doRequest(t, srv, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, status)

	var resp model.AuthResponse
	decodeData(t, env, &resp)
	return resp
}

package service

import (
	"context"
	"strings"
	"sync"

	"go-task-tracker/internal/model"
)

type fakeUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{nextID: 1, users: make(map[int64]model.User)}
}

func (s *fakeUserStore) Create(_ context.Context, u model.User) (model.User, error) {
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

	u.ID = s.nextID
	s.nextID++
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *fakeUserStore) FindByRefreshToken(_ context.Context, token string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.RefreshToken != nil && *u.RefreshToken == token {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *fakeUserStore) UpdateRefreshToken(_ context.Context, userID int64, token *string) error {
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

func (s *fakeUserStore) UpdatePassword(_ context.Context, userID int64, passwordHash string) error {
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

func (s *fakeUserStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) List(_ context.Context, page int, limit int) ([]model.PublicUser, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.PublicUser, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Public())
	}
	return out, len(out), nil
}

type fakeTodoStore struct {
	mu     sync.Mutex
	nextID int64
	todos  map[int64]model.Todo
}

func newFakeTodoStore() *fakeTodoStore {
	return &fakeTodoStore{nextID: 1, todos: make(map[int64]model.Todo)}
}

func (s *fakeTodoStore) Create(_ context.Context, ownerID int64, req model.CreateTodoRequest) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo := model.Todo{
		ID:     s.nextID,
		Title:  req.Title,
		Status: model.TodoStatusPending,
		UserID: ownerID,
	}
	if req.Description != nil {
		todo.Description = req.Description
	}
	s.nextID++
	s.todos[todo.ID] = todo
	return todo, nil
}

func (s *fakeTodoStore) FindByID(_ context.Context, id int64, ownerID int64) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[id]
	if !ok || (ownerID != 0 && todo.UserID != ownerID) {
		return model.Todo{}, model.ErrTodoNotFound
	}
	return todo, nil
}

func (s *fakeTodoStore) List(_ context.Context, filter model.TodoFilter) ([]model.Todo, int, error) {
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

func (s *fakeTodoStore) ListWithOwners(ctx context.Context, filter model.TodoFilter) ([]model.Todo, int, error) {
	return s.List(ctx, filter)
}

func (s *fakeTodoStore) Update(_ context.Context, id int64, ownerID int64, updates model.UpdateTodoRequest) (model.Todo, error) {
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
	s.todos[id] = todo
	return todo, nil
}

func (s *fakeTodoStore) Delete(_ context.Context, id int64, ownerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[id]
	if !ok || (ownerID != 0 && todo.UserID != ownerID) {
		return model.ErrTodoNotFound
	}
	delete(s.todos, id)
	return nil
}

type fakeAuditStore struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (s *fakeAuditStore) Log(_ context.Context, entry model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeAuditStore) Query(_ context.Context, query model.AuditQuery) ([]model.AuditEntry, *model.Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.AuditEntry, 0)
	for _, e := range s.entries {
		if query.Action != "" && e.Action != query.Action {
			continue
		}
		if query.Status != "" && e.Status != query.Status {
			continue
		}
		out = append(out, e)
	}
	return out, model.NewMeta(1, len(out)+1, len(out)), nil
}

func (s *fakeAuditStore) byAction(action string) []model.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.AuditEntry, 0)
	for _, e := range s.entries {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

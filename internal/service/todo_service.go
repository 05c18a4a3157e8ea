package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go-task-tracker/internal/model"
	"go-task-tracker/pkg/apierror"
)

type TodoStore interface {
	Create(ctx context.Context, ownerID int64, req model.CreateTodoRequest) (model.Todo, error)
	FindByID(ctx context.Context, id int64, ownerID int64) (model.Todo, error)
	List(ctx context.Context, filter model.TodoFilter) ([]model.Todo, int, error)
	ListWithOwners(ctx context.Context, filter model.TodoFilter) ([]model.Todo, int, error)
	Update(ctx context.Context, id int64, ownerID int64, updates model.UpdateTodoRequest) (model.Todo, error)
	Delete(ctx context.Context, id int64, ownerID int64) error
}

type TodoService struct {
	todos TodoStore
	audit *AuditService
}

func NewTodoService(todos TodoStore, audit *AuditService) *TodoService {
	return &TodoService{todos: todos, audit: audit}
}

func (s *TodoService) Create(ctx context.Context, actor model.AuditActor, req model.CreateTodoRequest) (model.Todo, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validateTitle(req.Title, true); err != nil {
		return model.Todo{}, err
	}
	if err := validateDescription(req.Description); err != nil {
		return model.Todo{}, err
	}

	todo, err := s.todos.Create(ctx, actor.UserID, req)
	if err != nil {
		return model.Todo{}, err
	}

	s.audit.Record(ctx, "todo.create", actor, AuditStatusSuccess, todoResource(todo.ID), "")
	slog.Info("todo created", "todo_id", todo.ID, "user_id", actor.UserID)
	return todo, nil
}

// Get returns a todo the actor owns; admins may fetch any todo by passing
// ownerID zero through the admin path.
func (s *TodoService) Get(ctx context.Context, id int64, ownerID int64) (model.Todo, error) {
	return s.todos.FindByID(ctx, id, ownerID)
}

func (s *TodoService) List(ctx context.Context, filter model.TodoFilter) ([]model.Todo, *model.Meta, error) {
	if err := validateFilter(&filter); err != nil {
		return nil, nil, err
	}

	todos, total, err := s.todos.List(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return todos, model.NewMeta(filter.Page, filter.Limit, total), nil
}

// ListAll is the admin listing across all users, including owner info.
func (s *TodoService) ListAll(ctx context.Context, filter model.TodoFilter) ([]model.Todo, *model.Meta, error) {
	filter.OwnerID = 0
	if err := validateFilter(&filter); err != nil {
		return nil, nil, err
	}

	todos, total, err := s.todos.ListWithOwners(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return todos, model.NewMeta(filter.Page, filter.Limit, total), nil
}

func (s *TodoService) Update(ctx context.Context, actor model.AuditActor, id int64, ownerID int64, req model.UpdateTodoRequest) (model.Todo, error) {
	if req.Empty() {
		return model.Todo{}, apierror.BadRequest("at least one field must be provided for update", "")
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
		if err := validateTitle(trimmed, true); err != nil {
			return model.Todo{}, err
		}
	}
	if err := validateDescription(req.Description); err != nil {
		return model.Todo{}, err
	}
	if req.Status != nil && *req.Status != model.TodoStatusPending && *req.Status != model.TodoStatusDone {
		return model.Todo{}, apierror.BadRequest("status must be either pending or done", *req.Status)
	}

	todo, err := s.todos.Update(ctx, id, ownerID, req)
	if err != nil {
		return model.Todo{}, err
	}

	s.audit.Record(ctx, "todo.update", actor, AuditStatusSuccess, todoResource(id), "")
	slog.Info("todo updated", "todo_id", id, "user_id", actor.UserID)
	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, actor model.AuditActor, id int64, ownerID int64) error {
	if err := s.todos.Delete(ctx, id, ownerID); err != nil {
		return err
	}

	s.audit.Record(ctx, "todo.delete", actor, AuditStatusSuccess, todoResource(id), "")
	slog.Info("todo deleted", "todo_id", id, "user_id", actor.UserID)
	return nil
}

func todoResource(id int64) string {
	return fmt.Sprintf("todo/%d", id)
}

func validateTitle(title string, required bool) error {
	if title == "" {
		if required {
			return apierror.BadRequest("title is required", "title")
		}
		return nil
	}
	if len(title) > 255 {
		return apierror.BadRequest("title must not exceed 255 characters", "title")
	}
	return nil
}

func validateDescription(description *string) error {
	if description != nil && len(*description) > 1000 {
		return apierror.BadRequest("description must not exceed 1000 characters", "description")
	}
	return nil
}

func validateFilter(filter *model.TodoFilter) error {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 10
	}
	if filter.Status != "" && filter.Status != model.TodoStatusPending && filter.Status != model.TodoStatusDone {
		return apierror.BadRequest("status must be either pending or done", filter.Status)
	}
	if len(filter.Search) > 255 {
		return apierror.BadRequest("search query must not exceed 255 characters", "search")
	}
	return nil
}

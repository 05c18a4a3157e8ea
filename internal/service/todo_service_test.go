package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-task-tracker/internal/model"
	"go-task-tracker/pkg/apierror"
)

func newTestTodoService() (*TodoService, *fakeTodoStore, *fakeAuditStore) {
	todos := newFakeTodoStore()
	audit := &fakeAuditStore{}
	return NewTodoService(todos, NewAuditService(audit)), todos, audit
}

func strPtr(s string) *string { return &s }

func TestTodoCreate(t *testing.T) {
	t.Run("creates pending todo for the actor", func(t *testing.T) {
		svc, _, audit := newTestTodoService()

		todo, err := svc.Create(context.Background(), model.AuditActor{UserID: 7}, model.CreateTodoRequest{
			Title:       "  buy milk  ",
			Description: strPtr("two liters"),
		})
		require.NoError(t, err)
		assert.Equal(t, "buy milk", todo.Title)
		assert.Equal(t, model.TodoStatusPending, todo.Status)
		assert.Equal(t, int64(7), todo.UserID)
		require.NotNil(t, todo.Description)
		assert.Equal(t, "two liters", *todo.Description)

		assert.Len(t, audit.byAction("todo.create"), 1)
	})

	t.Run("rejects empty and oversized input", func(t *testing.T) {
		svc, _, _ := newTestTodoService()

		_, err := svc.Create(context.Background(), model.AuditActor{UserID: 7}, model.CreateTodoRequest{Title: "   "})
		assert.Error(t, err)

		_, err = svc.Create(context.Background(), model.AuditActor{UserID: 7}, model.CreateTodoRequest{
			Title: strings.Repeat("x", 256),
		})
		assert.Error(t, err)

		_, err = svc.Create(context.Background(), model.AuditActor{UserID: 7}, model.CreateTodoRequest{
			Title:       "ok",
			Description: strPtr(strings.Repeat("x", 1001)),
		})
		assert.Error(t, err)
	})
}

func TestTodoOwnership(t *testing.T) {
	svc, _, _ := newTestTodoService()

	mine, err := svc.Create(context.Background(), model.AuditActor{UserID: 1}, model.CreateTodoRequest{Title: "mine"})
	require.NoError(t, err)

	t.Run("other users cannot see the todo", func(t *testing.T) {
		_, err := svc.Get(context.Background(), mine.ID, 2)
		assert.ErrorIs(t, err, model.ErrTodoNotFound)
	})

	t.Run("other users cannot update or delete", func(t *testing.T) {
		_, err := svc.Update(context.Background(), model.AuditActor{UserID: 2}, mine.ID, 2, model.UpdateTodoRequest{
			Status: strPtr(model.TodoStatusDone),
		})
		assert.ErrorIs(t, err, model.ErrTodoNotFound)

		err = svc.Delete(context.Background(), model.AuditActor{UserID: 2}, mine.ID, 2)
		assert.ErrorIs(t, err, model.ErrTodoNotFound)
	})

	t.Run("admin path reaches any todo", func(t *testing.T) {
		got, err := svc.Get(context.Background(), mine.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, mine.ID, got.ID)
	})
}

func TestTodoList(t *testing.T) {
	svc, _, _ := newTestTodoService()

	_, err := svc.Create(context.Background(), model.AuditActor{UserID: 1}, model.CreateTodoRequest{Title: "walk the dog"})
	require.NoError(t, err)
	done, err := svc.Create(context.Background(), model.AuditActor{UserID: 1}, model.CreateTodoRequest{Title: "pay rent"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), model.AuditActor{UserID: 2}, model.CreateTodoRequest{Title: "walk the cat"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), model.AuditActor{UserID: 1}, done.ID, 1, model.UpdateTodoRequest{
		Status: strPtr(model.TodoStatusDone),
	})
	require.NoError(t, err)

	t.Run("scopes to owner", func(t *testing.T) {
		todos, meta, err := svc.List(context.Background(), model.TodoFilter{OwnerID: 1})
		require.NoError(t, err)
		assert.Len(t, todos, 2)
		assert.Equal(t, 2, meta.Total)
	})

	t.Run("filters by status", func(t *testing.T) {
		todos, _, err := svc.List(context.Background(), model.TodoFilter{OwnerID: 1, Status: model.TodoStatusDone})
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, "pay rent", todos[0].Title)
	})

	t.Run("searches titles", func(t *testing.T) {
		todos, _, err := svc.List(context.Background(), model.TodoFilter{OwnerID: 1, Search: "walk"})
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, "walk the dog", todos[0].Title)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, _, err := svc.List(context.Background(), model.TodoFilter{OwnerID: 1, Status: "archived"})
		var apiErr *apierror.APIError
		assert.ErrorAs(t, err, &apiErr)
	})

	t.Run("admin listing spans all users", func(t *testing.T) {
		todos, meta, err := svc.ListAll(context.Background(), model.TodoFilter{})
		require.NoError(t, err)
		assert.Len(t, todos, 3)
		assert.Equal(t, 3, meta.Total)
	})

	t.Run("clamps out-of-range pagination", func(t *testing.T) {
		_, meta, err := svc.List(context.Background(), model.TodoFilter{OwnerID: 1, Page: -3, Limit: 5000})
		require.NoError(t, err)
		assert.Equal(t, 1, meta.Page)
		assert.Equal(t, 10, meta.Limit)
	})
}

func TestTodoUpdate(t *testing.T) {
	svc, _, _ := newTestTodoService()

	todo, err := svc.Create(context.Background(), model.AuditActor{UserID: 1}, model.CreateTodoRequest{Title: "draft"})
	require.NoError(t, err)

	t.Run("empty update is rejected", func(t *testing.T) {
		_, err := svc.Update(context.Background(), model.AuditActor{UserID: 1}, todo.ID, 1, model.UpdateTodoRequest{})
		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
	})

	t.Run("invalid status is rejected", func(t *testing.T) {
		_, err := svc.Update(context.Background(), model.AuditActor{UserID: 1}, todo.ID, 1, model.UpdateTodoRequest{
			Status: strPtr("finished"),
		})
		assert.Error(t, err)
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		updated, err := svc.Update(context.Background(), model.AuditActor{UserID: 1}, todo.ID, 1, model.UpdateTodoRequest{
			Status: strPtr(model.TodoStatusDone),
		})
		require.NoError(t, err)
		assert.Equal(t, "draft", updated.Title)
		assert.Equal(t, model.TodoStatusDone, updated.Status)
	})
}

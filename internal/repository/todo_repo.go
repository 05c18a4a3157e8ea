package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-task-tracker/internal/model"
)

const todoColumns = `id, title, description, status, user_id, created_at, updated_at`

type TodoRepository struct {
	pool *pgxpool.Pool
}

func NewTodoRepository(pool *pgxpool.Pool) *TodoRepository {
	return &TodoRepository{pool: pool}
}

func scanTodo(row pgx.Row) (model.Todo, error) {
	var t model.Todo
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *TodoRepository) Create(ctx context.Context, ownerID int64, req model.CreateTodoRequest) (model.Todo, error) {
	t, err := scanTodo(r.pool.QueryRow(ctx,
		`INSERT INTO todos (title, description, user_id)
		 VALUES ($1, $2, $3)
		 RETURNING `+todoColumns, req.Title, req.Description, ownerID))
	if err != nil {
		return model.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return t, nil
}

// FindByID looks up a todo. ownerID of zero skips the ownership filter and
// is reserved for admin callers.
func (r *TodoRepository) FindByID(ctx context.Context, id int64, ownerID int64) (model.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`
	args := []any{id}
	if ownerID != 0 {
		query += ` AND user_id = $2`
		args = append(args, ownerID)
	}

	t, err := scanTodo(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Todo{}, model.ErrTodoNotFound
	}
	if err != nil {
		return model.Todo{}, fmt.Errorf("find todo by id: %w", err)
	}
	return t, nil
}

func buildTodoFilter(filter model.TodoFilter, alias string) (string, []any) {
	where := make([]string, 0)
	args := make([]any, 0)
	argIdx := 1

	if filter.OwnerID != 0 {
		where = append(where, fmt.Sprintf("%suser_id = $%d", alias, argIdx))
		args = append(args, filter.OwnerID)
		argIdx++
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		where = append(where, fmt.Sprintf("%sstatus = $%d", alias, argIdx))
		args = append(args, status)
		argIdx++
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where = append(where, fmt.Sprintf("(%stitle ILIKE $%d OR %sdescription ILIKE $%d)", alias, argIdx, alias, argIdx))
		args = append(args, "%"+search+"%")
		argIdx++
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}
	return clause, args
}

func (r *TodoRepository) List(ctx context.Context, filter model.TodoFilter) ([]model.Todo, int, error) {
	whereClause, args := buildTodoFilter(filter, "")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM todos %s`, whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count todos: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	dataQuery := fmt.Sprintf(
		`SELECT `+todoColumns+` FROM todos %s
		 ORDER BY created_at DESC
		 LIMIT $%d OFFSET $%d`, whereClause, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]model.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, total, rows.Err()
}

// ListWithOwners is the admin listing: it joins the owning user so the
// response can show who each todo belongs to.
func (r *TodoRepository) ListWithOwners(ctx context.Context, filter model.TodoFilter) ([]model.Todo, int, error) {
	whereClause, args := buildTodoFilter(filter, "t.")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM todos t %s`, whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count todos: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	dataQuery := fmt.Sprintf(
		`SELECT t.id, t.title, t.description, t.status, t.user_id, t.created_at, t.updated_at,
		        u.username, u.email
		 FROM todos t
		 JOIN users u ON t.user_id = u.id
		 %s
		 ORDER BY t.created_at DESC
		 LIMIT $%d OFFSET $%d`, whereClause, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list todos with owners: %w", err)
	}
	defer rows.Close()

	todos := make([]model.Todo, 0)
	for rows.Next() {
		var t model.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.UserID,
			&t.CreatedAt, &t.UpdatedAt, &t.OwnerUsername, &t.OwnerEmail); err != nil {
			return nil, 0, fmt.Errorf("scan todo with owner: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, total, rows.Err()
}

// Update applies only the provided fields. ownerID of zero skips the
// ownership filter (admin path).
func (r *TodoRepository) Update(ctx context.Context, id int64, ownerID int64, updates model.UpdateTodoRequest) (model.Todo, error) {
	set := make([]string, 0, 3)
	args := make([]any, 0, 5)
	argIdx := 1

	if updates.Title != nil {
		set = append(set, fmt.Sprintf("title = $%d", argIdx))
		args = append(args, *updates.Title)
		argIdx++
	}
	if updates.Description != nil {
		set = append(set, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *updates.Description)
		argIdx++
	}
	if updates.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *updates.Status)
		argIdx++
	}

	if len(set) == 0 {
		return model.Todo{}, model.ErrInvalidInput
	}

	query := fmt.Sprintf(`UPDATE todos SET %s, updated_at = now() WHERE id = $%d`,
		strings.Join(set, ", "), argIdx)
	args = append(args, id)
	argIdx++
	if ownerID != 0 {
		query += fmt.Sprintf(` AND user_id = $%d`, argIdx)
		args = append(args, ownerID)
	}
	query += ` RETURNING ` + todoColumns

	t, err := scanTodo(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Todo{}, model.ErrTodoNotFound
	}
	if err != nil {
		return model.Todo{}, fmt.Errorf("update todo: %w", err)
	}
	return t, nil
}

func (r *TodoRepository) Delete(ctx context.Context, id int64, ownerID int64) error {
	query := `DELETE FROM todos WHERE id = $1`
	args := []any{id}
	if ownerID != 0 {
		query += ` AND user_id = $2`
		args = append(args, ownerID)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTodoNotFound
	}
	return nil
}

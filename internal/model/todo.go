package model

import "time"

const (
	TodoStatusPending = "pending"
	TodoStatusDone    = "done"
)

type Todo struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Status      string    `json:"status"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Owner info, populated only on admin listings.
	OwnerUsername string `json:"owner_username,omitempty"`
	OwnerEmail    string `json:"owner_email,omitempty"`
}

// TodoFilter narrows a todo listing. OwnerID of zero means "all users"
// and is only reachable through admin routes.
type TodoFilter struct {
	OwnerID int64
	Status  string
	Search  string
	Page    int
	Limit   int
}

package models

import "time"

// Task is a single entry in the task list.
type Task struct {
	ID        int64     `json:"id"`
	UserID    *string   `json:"userId,omitempty"` // Nullable for tasks whose owner was removed
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

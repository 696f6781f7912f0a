package types

import "time"

// Action tags an activity record with what happened to the issue.
type Action string

// Activity action constants
const (
	ActionCreated Action = "CREATED"
	ActionUpdated Action = "UPDATED"
)

// Activity is an immutable audit record describing one successful mutation.
// Records are append-only: never updated, never deleted. UserID is nil when
// the acting identity could not be resolved.
type Activity struct {
	ID          int64     `json:"id"`
	IssueID     int64     `json:"issue_id"`
	UserID      *int64    `json:"user_id,omitempty"`
	Action      Action    `json:"action"`
	Changes     string    `json:"changes"`      // one "field: old → new" line per change
	ChangeCount int       `json:"change_count"` // number of changed fields
	CreatedAt   time.Time `json:"created_at"`
}

// Notification is a downstream side effect of a mutation, delivered
// fire-and-forget. A failed delivery never rolls back the mutation.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

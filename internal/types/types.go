// Package types defines core data structures for the storydeck issue tracker.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Issue represents a trackable work item inside a project.
type Issue struct {
	ID            int64     `json:"id"`
	ProjectID     int64     `json:"project_id"`
	TeamID        *int64    `json:"team_id,omitempty"`
	ParentID      *int64    `json:"parent_id,omitempty"`
	StoryCode     string    `json:"story_code"` // e.g. "AB-0042", unique per numbering prefix
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	IssueType     IssueType `json:"issue_type"`
	Status        Status    `json:"status,omitempty"`
	Priority      Priority  `json:"priority,omitempty"`
	AssigneeID    *int64    `json:"assignee_id,omitempty"`
	Assignee      string    `json:"assignee,omitempty"` // display name, denormalized
	Reviewer      string    `json:"reviewer,omitempty"`
	ReleaseNumber string    `json:"release_number,omitempty"`
	SprintNumber  string    `json:"sprint_number,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate checks if the issue has valid field values.
func (i *Issue) Validate() error {
	if len(i.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(i.Title) > 500 {
		return fmt.Errorf("title must be 500 characters or less (got %d)", len(i.Title))
	}
	if !i.IssueType.IsValid() {
		return fmt.Errorf("invalid issue type: %s", i.IssueType)
	}
	if i.Status != "" && !i.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", i.Status)
	}
	if i.Priority != "" && !i.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %s", i.Priority)
	}
	return nil
}

// SetDefaults applies default values for fields omitted on create.
func (i *Issue) SetDefaults() {
	if i.Status == "" {
		i.Status = StatusTodo
	}
	if i.Priority == "" {
		i.Priority = PriorityMedium
	}
	if i.IssueType == "" {
		i.IssueType = TypeTask
	}
}

// IsDone reports whether the issue's status is the terminal Done state.
// The comparison is case-insensitive; everything else about statuses is not.
func (i *Issue) IsDone() bool {
	return strings.EqualFold(string(i.Status), string(StatusDone))
}

// Status represents the current state of an issue.
type Status string

// Issue status constants
const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "In Progress"
	StatusReview     Status = "Review"
	StatusDone       Status = "Done"
)

// IsValid checks if the status value is one of the built-in statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// IssueType represents the hierarchy level of an issue.
// Epic > Story > Task > Subtask, plus Bug which attaches to a Story or Task.
type IssueType string

// Issue type constants
const (
	TypeEpic    IssueType = "Epic"
	TypeStory   IssueType = "Story"
	TypeTask    IssueType = "Task"
	TypeSubtask IssueType = "Subtask"
	TypeBug     IssueType = "Bug"
)

// IsValid checks if the issue type is valid.
func (t IssueType) IsValid() bool {
	switch t {
	case TypeEpic, TypeStory, TypeTask, TypeSubtask, TypeBug:
		return true
	}
	return false
}

// ValidParents returns the issue types allowed as a parent of this type.
// An empty result means the type cannot have a parent at all (Epic).
func (t IssueType) ValidParents() []IssueType {
	switch t {
	case TypeStory:
		return []IssueType{TypeEpic}
	case TypeTask:
		return []IssueType{TypeStory}
	case TypeSubtask:
		return []IssueType{TypeTask}
	case TypeBug:
		return []IssueType{TypeStory, TypeTask}
	}
	return nil
}

// RequiresParent reports whether the type cannot exist without a parent.
// Only Subtask is parent-mandatory; a Story or Task may sit at the top of
// a partial hierarchy.
func (t IssueType) RequiresParent() bool {
	return t == TypeSubtask
}

// Priority represents the urgency of an issue.
type Priority string

// Priority constants
const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// IsValid checks if the priority value is valid.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

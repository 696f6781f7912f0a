// Package storydeck provides a minimal public API for embedding the tracker
// in other Go programs.
//
// The package exports only the essential types and constructors needed to
// use the storage layer and the permission-checked tracker service
// programmatically. Everything else lives under internal/.
package storydeck

import (
	"github.com/storydeck/storydeck/internal/storage"
	"github.com/storydeck/storydeck/internal/storage/sqlite"
	"github.com/storydeck/storydeck/internal/tracker"
	"github.com/storydeck/storydeck/internal/types"
)

// Core types for working with issues
type (
	Issue     = types.Issue
	IssueType = types.IssueType
	Status    = types.Status
	Priority  = types.Priority
	User      = types.User
	Project   = types.Project
	Team      = types.Team
)

// Status constants
const (
	StatusTodo       = types.StatusTodo
	StatusInProgress = types.StatusInProgress
	StatusReview     = types.StatusReview
	StatusDone       = types.StatusDone
)

// IssueType constants
const (
	TypeEpic    = types.TypeEpic
	TypeStory   = types.TypeStory
	TypeTask    = types.TypeTask
	TypeSubtask = types.TypeSubtask
	TypeBug     = types.TypeBug
)

// Storage is the persistence interface backing the tracker.
type Storage = storage.Storage

// Service sequences permission checks, hierarchy validation and audit
// records around every issue mutation.
type Service = tracker.Service

// CreateIssueRequest carries the caller-supplied fields for Service.CreateIssue.
type CreateIssueRequest = tracker.CreateIssueRequest

// ErrPermissionDenied is returned by Service methods when the actor lacks
// permission; branch on it with errors.Is.
var ErrPermissionDenied = tracker.ErrPermissionDenied

// NewSQLiteStorage opens (creating if needed) a storydeck SQLite database.
// masterAdminEmail designates the reserved super-user identity; pass "" to
// disable the override.
func NewSQLiteStorage(dbPath, masterAdminEmail string) (Storage, error) {
	return sqlite.New(dbPath, masterAdminEmail)
}

// NewService builds a tracker service over a storage backend. notifier may
// be nil to drop notification triggers.
func NewService(store Storage, notifier tracker.Notifier) *Service {
	return tracker.New(store, notifier)
}

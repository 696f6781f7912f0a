// Package storage provides shared types for entity storage.
//
// The concrete implementations live in the sqlite and memory sub-packages.
// This package holds the interface and sentinel errors referenced by both
// the implementations and their consumers (internal/tracker, cmd/sd).
package storage

import (
	"context"
	"errors"

	"github.com/storydeck/storydeck/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrInactiveProject is returned when a mutation targets an issue of a
// deactivated project.
var ErrInactiveProject = errors.New("project is inactive")

// Storage is the persistence interface satisfied by *sqlite.Store and
// *memory.Store. Consumers depend on this interface rather than a concrete
// type so mocks and alternative backends can be substituted.
//
// User snapshots returned from storage carry loaded team relationships and
// have the master-admin override already applied.
type Storage interface {
	// Users
	CreateUser(ctx context.Context, user *types.User) error
	GetUser(ctx context.Context, id int64) (*types.User, error)
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	SetUserViewMode(ctx context.Context, id int64, mode types.ViewMode) error

	// Projects
	CreateProject(ctx context.Context, project *types.Project) error
	GetProject(ctx context.Context, id int64) (*types.Project, error)
	SetProjectActive(ctx context.Context, id int64, active bool) error

	// Teams
	CreateTeam(ctx context.Context, team *types.Team) error
	GetTeam(ctx context.Context, id int64) (*types.Team, error)
	AddTeamMember(ctx context.Context, teamID, userID int64) error

	// Issues
	CreateIssue(ctx context.Context, issue *types.Issue) error
	GetIssue(ctx context.Context, id int64) (*types.Issue, error)
	GetChildren(ctx context.Context, issueID int64) ([]*types.Issue, error)
	ListIssuesByProject(ctx context.Context, projectID int64) ([]*types.Issue, error)
	ListStoryCodes(ctx context.Context, prefix string) ([]string, error)
	UpdateIssue(ctx context.Context, issue *types.Issue) error
	DeleteIssue(ctx context.Context, id int64) error
	SearchIssues(ctx context.Context, query string) ([]*types.Issue, error)

	// Activities and notifications
	AddActivity(ctx context.Context, activity *types.Activity) error
	ListActivities(ctx context.Context, issueID int64) ([]*types.Activity, error)
	AddNotification(ctx context.Context, n *types.Notification) error
	ListNotifications(ctx context.Context, userID int64) ([]*types.Notification, error)

	// Transactions
	RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error

	// Lifecycle
	Close() error
}

// Transaction exposes the subset of storage operations a mutation needs to
// execute atomically: every core check reads through the transaction, and
// the entity write plus its audit record commit together or not at all.
type Transaction interface {
	GetUser(ctx context.Context, id int64) (*types.User, error)
	GetProject(ctx context.Context, id int64) (*types.Project, error)
	GetTeam(ctx context.Context, id int64) (*types.Team, error)
	AddTeamMember(ctx context.Context, teamID, userID int64) error

	CreateIssue(ctx context.Context, issue *types.Issue) error
	GetIssue(ctx context.Context, id int64) (*types.Issue, error)
	GetChildren(ctx context.Context, issueID int64) ([]*types.Issue, error)
	ListStoryCodes(ctx context.Context, prefix string) ([]string, error)
	UpdateIssue(ctx context.Context, issue *types.Issue) error
	DeleteIssue(ctx context.Context, id int64) error

	AddActivity(ctx context.Context, activity *types.Activity) error
}

// Package memory provides an in-memory storage implementation used in tests
// and anywhere a throwaway backend is convenient. It mirrors the semantics
// of the sqlite store except that RunInTransaction offers no rollback: the
// callers sequence all validation before the first write, so a failed
// mutation never has writes to undo.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/storydeck/storydeck/internal/storage"
	"github.com/storydeck/storydeck/internal/types"
)

// Store implements storage.Storage with plain maps.
type Store struct {
	mu sync.RWMutex

	// MasterEmail is the reserved super-user identity applied when loading
	// users, mirroring the sqlite store's resolution config.
	MasterEmail string

	users         map[int64]*types.User
	projects      map[int64]*types.Project
	teams         map[int64]*types.Team
	teamMembers   map[int64][]int64 // team id -> user ids
	issues        map[int64]*types.Issue
	activities    []*types.Activity
	notifications []*types.Notification
	nextID        int64
}

// New creates an empty in-memory store.
func New(masterEmail string) *Store {
	return &Store{
		MasterEmail: masterEmail,
		users:       make(map[int64]*types.User),
		projects:    make(map[int64]*types.Project),
		teams:       make(map[int64]*types.Team),
		teamMembers: make(map[int64][]int64),
		issues:      make(map[int64]*types.Issue),
	}
}

func (m *Store) allocID() int64 {
	m.nextID++
	return m.nextID
}

// CreateUser stores a user and assigns its id.
func (m *Store) CreateUser(_ context.Context, user *types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.Role == "" {
		user.Role = types.RoleDeveloper
	}
	if user.ViewMode == "" {
		user.ViewMode = types.ViewModeDeveloper
	}
	if user.ID == 0 {
		user.ID = m.allocID()
	}
	u := *user
	m.users[user.ID] = &u
	return nil
}

// GetUser returns a user snapshot with team relationships loaded and the
// master-admin override applied.
func (m *Store) GetUser(_ context.Context, id int64) (*types.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return m.resolveUser(u), nil
}

// GetUserByEmail returns a user by email, same resolution as GetUser.
func (m *Store) GetUserByEmail(_ context.Context, email string) (*types.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			return m.resolveUser(u), nil
		}
	}
	return nil, storage.ErrNotFound
}

// SetUserViewMode updates the stored view mode.
func (m *Store) SetUserViewMode(_ context.Context, id int64, mode types.ViewMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.ViewMode = mode
	return nil
}

func (m *Store) resolveUser(u *types.User) *types.User {
	out := *u
	out.Teams = nil
	out.LedTeams = nil
	for _, t := range m.teams {
		team := m.teamSnapshot(t)
		if t.LeadID != nil && *t.LeadID == u.ID {
			out.LedTeams = append(out.LedTeams, team)
		}
		for _, memberID := range m.teamMembers[t.ID] {
			if memberID == u.ID {
				out.Teams = append(out.Teams, team)
				break
			}
		}
	}
	out.ApplyMasterAdminOverride(m.MasterEmail)
	return &out
}

// CreateProject stores a project and assigns its id.
func (m *Store) CreateProject(_ context.Context, project *types.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if project.ID == 0 {
		project.ID = m.allocID()
	}
	p := *project
	m.projects[project.ID] = &p
	return nil
}

// GetProject returns a project snapshot.
func (m *Store) GetProject(_ context.Context, id int64) (*types.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *p
	return &out, nil
}

// SetProjectActive archives or reactivates a project.
func (m *Store) SetProjectActive(_ context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return storage.ErrNotFound
	}
	p.Active = active
	return nil
}

// CreateTeam stores a team; project scope is fixed at creation.
func (m *Store) CreateTeam(_ context.Context, team *types.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if team.ID == 0 {
		team.ID = m.allocID()
	}
	t := *team
	t.MemberIDs = nil
	m.teams[team.ID] = &t
	m.teamMembers[team.ID] = append([]int64(nil), team.MemberIDs...)
	return nil
}

// GetTeam returns a team snapshot with its roster.
func (m *Store) GetTeam(_ context.Context, id int64) (*types.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return m.teamSnapshot(t), nil
}

// AddTeamMember adds a user to a team roster; re-adding is a no-op.
func (m *Store) AddTeamMember(_ context.Context, teamID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teams[teamID]; !ok {
		return storage.ErrNotFound
	}
	for _, id := range m.teamMembers[teamID] {
		if id == userID {
			return nil
		}
	}
	m.teamMembers[teamID] = append(m.teamMembers[teamID], userID)
	return nil
}

func (m *Store) teamSnapshot(t *types.Team) *types.Team {
	out := *t
	out.MemberIDs = append([]int64(nil), m.teamMembers[t.ID]...)
	return &out
}

// CreateIssue stores an issue and assigns its id.
func (m *Store) CreateIssue(_ context.Context, issue *types.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := issue.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = now
	}
	issue.UpdatedAt = now
	if issue.ID == 0 {
		issue.ID = m.allocID()
	}
	i := *issue
	m.issues[issue.ID] = &i
	return nil
}

// GetIssue returns an issue snapshot.
func (m *Store) GetIssue(_ context.Context, id int64) (*types.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.issues[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *i
	return &out, nil
}

// GetChildren returns the direct children of an issue.
func (m *Store) GetChildren(_ context.Context, issueID int64) ([]*types.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.issuesMatching(func(i *types.Issue) bool {
		return i.ParentID != nil && *i.ParentID == issueID
	}), nil
}

// ListIssuesByProject returns every issue in a project.
func (m *Store) ListIssuesByProject(_ context.Context, projectID int64) ([]*types.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.issuesMatching(func(i *types.Issue) bool {
		return i.ProjectID == projectID
	}), nil
}

// ListStoryCodes returns codes allocated under a prefix.
func (m *Store) ListStoryCodes(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var codes []string
	for _, i := range m.issues {
		if strings.HasPrefix(i.StoryCode, prefix+"-") {
			codes = append(codes, i.StoryCode)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

// UpdateIssue replaces a stored issue.
func (m *Store) UpdateIssue(_ context.Context, issue *types.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := issue.Validate(); err != nil {
		return err
	}
	if _, ok := m.issues[issue.ID]; !ok {
		return storage.ErrNotFound
	}
	issue.UpdatedAt = time.Now().UTC()
	i := *issue
	m.issues[issue.ID] = &i
	return nil
}

// DeleteIssue removes an issue, detaching its children.
func (m *Store) DeleteIssue(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.issues[id]; !ok {
		return storage.ErrNotFound
	}
	for _, i := range m.issues {
		if i.ParentID != nil && *i.ParentID == id {
			i.ParentID = nil
		}
	}
	delete(m.issues, id)
	return nil
}

// SearchIssues matches the query against title, description and story code.
func (m *Store) SearchIssues(_ context.Context, query string) ([]*types.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(query)
	return m.issuesMatching(func(i *types.Issue) bool {
		return strings.Contains(strings.ToLower(i.Title), q) ||
			strings.Contains(strings.ToLower(i.Description), q) ||
			strings.Contains(strings.ToLower(i.StoryCode), q)
	}), nil
}

func (m *Store) issuesMatching(match func(*types.Issue) bool) []*types.Issue {
	var out []*types.Issue
	for _, i := range m.issues {
		if match(i) {
			c := *i
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// AddActivity appends an audit record.
func (m *Store) AddActivity(_ context.Context, activity *types.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	if activity.ID == 0 {
		activity.ID = m.allocID()
	}
	a := *activity
	m.activities = append(m.activities, &a)
	return nil
}

// ListActivities returns an issue's audit trail, newest first.
func (m *Store) ListActivities(_ context.Context, issueID int64) ([]*types.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Activity
	for _, a := range m.activities {
		if a.IssueID == issueID {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out, nil
}

// AddNotification stores a notification.
func (m *Store) AddNotification(_ context.Context, n *types.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.ID == 0 {
		n.ID = m.allocID()
	}
	c := *n
	m.notifications = append(m.notifications, &c)
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (m *Store) ListNotifications(_ context.Context, userID int64) ([]*types.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*types.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			c := *n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out, nil
}

// RunInTransaction executes fn against the store itself. There is no
// rollback: callers validate before writing.
func (m *Store) RunInTransaction(_ context.Context, fn func(tx storage.Transaction) error) error {
	return fn(m)
}

// Close is a no-op.
func (m *Store) Close() error { return nil }

var (
	_ storage.Storage     = (*Store)(nil)
	_ storage.Transaction = (*Store)(nil)
)

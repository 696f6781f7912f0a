package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/storydeck/storydeck/internal/storage"
	"github.com/storydeck/storydeck/internal/storage/memory"
	"github.com/storydeck/storydeck/internal/types"
	"github.com/storydeck/storydeck/internal/validation"
)

func ptr(v int64) *int64 { return &v }

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingNotifier) Notify(_ context.Context, userID int64, title, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("%d:%s", userID, title))
}

func (r *recordingNotifier) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// fixture is one project with one team: olivia owns the project, liam leads
// the team, dana is a plain member, and xavier belongs to nothing.
type fixture struct {
	store *memory.Store
	svc   *Service
	notes *recordingNotifier

	project *types.Project
	team    *types.Team

	owner, lead, dev, outsider *types.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New("root@storydeck.local")

	f := &fixture{store: store, notes: &recordingNotifier{}}
	f.svc = New(store, f.notes)

	mkUser := func(name string, role types.Role, mode types.ViewMode) *types.User {
		u := &types.User{Username: name, Email: name + "@example.com", Role: role, ViewMode: mode}
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser(%s): %v", name, err)
		}
		return u
	}
	f.owner = mkUser("olivia", types.RoleOwner, types.ViewModeAdmin)
	f.lead = mkUser("liam", types.RoleDeveloper, types.ViewModeDeveloper)
	f.dev = mkUser("dana", types.RoleDeveloper, types.ViewModeDeveloper)
	f.outsider = mkUser("xavier", types.RoleDeveloper, types.ViewModeDeveloper)

	f.project = &types.Project{Name: "Payments", Prefix: "PR", OwnerID: f.owner.ID, Active: true}
	if err := store.CreateProject(ctx, f.project); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	f.team = &types.Team{
		Name:      "Core",
		ProjectID: f.project.ID,
		LeadID:    ptr(f.lead.ID),
		MemberIDs: []int64{f.lead.ID, f.dev.ID},
	}
	if err := store.CreateTeam(ctx, f.team); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	// Reload so Teams/LedTeams are populated.
	f.owner = f.user(t, f.owner.ID)
	f.lead = f.user(t, f.lead.ID)
	f.dev = f.user(t, f.dev.ID)
	f.outsider = f.user(t, f.outsider.ID)
	return f
}

func (f *fixture) user(t *testing.T, id int64) *types.User {
	t.Helper()
	u, err := f.store.GetUser(context.Background(), id)
	if err != nil {
		t.Fatalf("GetUser(%d): %v", id, err)
	}
	return u
}

func (f *fixture) create(t *testing.T, actor *types.User, req CreateIssueRequest) *types.Issue {
	t.Helper()
	issue, err := f.svc.CreateIssue(context.Background(), actor, req)
	if err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	return issue
}

func TestCreateIssueByOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID,
		TeamID:    ptr(f.team.ID),
		Title:     "Build checkout flow",
		IssueType: types.TypeStory,
	})
	if issue.StoryCode != "PR-0001" {
		t.Errorf("StoryCode = %q, want PR-0001", issue.StoryCode)
	}
	if issue.Status != types.StatusTodo {
		t.Errorf("Status = %q, want default TODO", issue.Status)
	}
	if issue.Assignee != "Unassigned" {
		t.Errorf("Assignee = %q, want Unassigned", issue.Assignee)
	}

	acts, err := f.svc.Activities(ctx, f.owner, issue.ID)
	if err != nil {
		t.Fatalf("Activities: %v", err)
	}
	if len(acts) != 1 {
		t.Fatalf("got %d activities, want 1", len(acts))
	}
	want := "Issue Created\nStatus: None → TODO"
	if acts[0].Changes != want {
		t.Errorf("Changes = %q, want %q", acts[0].Changes, want)
	}
	if acts[0].UserID == nil || *acts[0].UserID != f.owner.ID {
		t.Errorf("activity actor = %v, want %d", acts[0].UserID, f.owner.ID)
	}
}

func TestCreateStoryCodeSequence(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, Title: "one", IssueType: types.TypeEpic,
	})
	second := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, Title: "two", IssueType: types.TypeEpic,
	})
	if first.StoryCode != "PR-0001" || second.StoryCode != "PR-0002" {
		t.Errorf("codes = %q, %q; want PR-0001, PR-0002", first.StoryCode, second.StoryCode)
	}
}

func TestCreateDenialMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   *types.User
		wantMsg string
	}{
		{
			name: "owner in developer mode",
			actor: func() *types.User {
				u := *f.owner
				u.ViewMode = types.ViewModeDeveloper
				return &u
			}(),
			wantMsg: "switch to Admin mode",
		},
		{
			name: "non-owner in admin mode",
			actor: func() *types.User {
				u := *f.lead
				u.ViewMode = types.ViewModeAdmin
				return &u
			}(),
			wantMsg: "projects you own",
		},
		{
			name:    "developer outside the project",
			actor:   f.outsider,
			wantMsg: "do not have permission",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateIssue(ctx, tt.actor, CreateIssueRequest{
				ProjectID: f.project.ID,
				TeamID:    ptr(f.team.ID),
				Title:     "blocked",
				IssueType: types.TypeTask,
			})
			if !errors.Is(err, ErrPermissionDenied) {
				t.Fatalf("err = %v, want ErrPermissionDenied", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %q, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestCreateDeveloperSelfAssigns(t *testing.T) {
	f := newFixture(t)

	// dana tries to hand the work to liam; non-leads cannot pick assignees.
	issue := f.create(t, f.dev, CreateIssueRequest{
		ProjectID:  f.project.ID,
		TeamID:     ptr(f.team.ID),
		Title:      "Fix rounding bug",
		IssueType:  types.TypeTask,
		AssigneeID: ptr(f.lead.ID),
	})
	if issue.AssigneeID == nil || *issue.AssigneeID != f.dev.ID {
		t.Errorf("AssigneeID = %v, want self (%d)", issue.AssigneeID, f.dev.ID)
	}
	if issue.Assignee != "dana" {
		t.Errorf("Assignee = %q, want dana", issue.Assignee)
	}
}

func TestCreateLeadAssignsOutsider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue := f.create(t, f.lead, CreateIssueRequest{
		ProjectID:  f.project.ID,
		TeamID:     ptr(f.team.ID),
		Title:      "Spike retries",
		IssueType:  types.TypeTask,
		AssigneeID: ptr(f.outsider.ID),
	})
	if issue.Assignee != "xavier" {
		t.Errorf("Assignee = %q, want xavier", issue.Assignee)
	}

	team, err := f.store.GetTeam(ctx, f.team.ID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if !team.HasMember(f.outsider.ID) {
		t.Error("assignee was not added to the team roster")
	}

	events := f.notes.list()
	want := fmt.Sprintf("%d:Issue Assigned", f.outsider.ID)
	if len(events) != 1 || events[0] != want {
		t.Errorf("notifications = %v, want [%s]", events, want)
	}
}

func TestCreateSubtaskNeedsParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateIssue(ctx, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID,
		Title:     "orphan subtask",
		IssueType: types.TypeSubtask,
	})
	if !errors.Is(err, validation.ErrInvalidHierarchy) {
		t.Fatalf("err = %v, want ErrInvalidHierarchy", err)
	}
	if !strings.Contains(err.Error(), "Task") {
		t.Errorf("err = %q, want the required parent type named", err)
	}
}

func TestCreateSubtaskUnderStory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	story := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, Title: "story", IssueType: types.TypeStory,
	})
	_, err := f.svc.CreateIssue(ctx, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID,
		ParentID:  ptr(story.ID),
		Title:     "misplaced subtask",
		IssueType: types.TypeSubtask,
	})
	if !errors.Is(err, validation.ErrInvalidHierarchy) {
		t.Fatalf("err = %v, want ErrInvalidHierarchy", err)
	}
	if !strings.Contains(err.Error(), "Task") {
		t.Errorf("err = %q, want Task named as the required parent", err)
	}
}

func TestUpdateDoneGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	parent := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, Title: "story", IssueType: types.TypeStory,
		TeamID: ptr(f.team.ID), AssigneeID: ptr(f.dev.ID),
	})
	child := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, ParentID: ptr(parent.ID),
		Title: "task", IssueType: types.TypeTask,
	})

	_, err := f.svc.UpdateIssue(ctx, f.owner, parent.ID, map[string]any{"status": "Done"})
	if !errors.Is(err, validation.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if !strings.Contains(err.Error(), "1 pending") {
		t.Errorf("err = %q, want pending count", err)
	}

	if _, err := f.svc.UpdateIssue(ctx, f.owner, child.ID, map[string]any{"status": "Done"}); err != nil {
		t.Fatalf("closing child: %v", err)
	}
	updated, err := f.svc.UpdateIssue(ctx, f.owner, parent.ID, map[string]any{"status": "Done"})
	if err != nil {
		t.Fatalf("closing parent after child done: %v", err)
	}
	if updated.Status != types.StatusDone {
		t.Errorf("Status = %q, want Done", updated.Status)
	}

	want := fmt.Sprintf("%d:Status Updated", f.dev.ID)
	var seen bool
	for _, e := range f.notes.list() {
		if e == want {
			seen = true
		}
	}
	if !seen {
		t.Errorf("notifications = %v, want %s among them", f.notes.list(), want)
	}
}

func TestUpdateDeveloperCannotReassign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue := f.create(t, f.dev, CreateIssueRequest{
		ProjectID: f.project.ID, TeamID: ptr(f.team.ID),
		Title: "mine", IssueType: types.TypeTask,
	})

	updated, err := f.svc.UpdateIssue(ctx, f.dev, issue.ID, map[string]any{
		"title":       "renamed",
		"assignee_id": ptr(f.lead.ID),
	})
	if err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}
	if updated.Title != "renamed" {
		t.Errorf("Title = %q, want renamed", updated.Title)
	}
	if updated.AssigneeID == nil || *updated.AssigneeID != f.dev.ID {
		t.Errorf("AssigneeID = %v, reassignment should have been stripped", updated.AssigneeID)
	}
}

func TestUpdateReassignByLead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, TeamID: ptr(f.team.ID),
		Title: "handoff", IssueType: types.TypeTask,
	})
	updated, err := f.svc.UpdateIssue(ctx, f.owner, issue.ID, map[string]any{
		"assignee_id": f.dev.ID,
	})
	if err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}
	if updated.Assignee != "dana" {
		t.Errorf("Assignee = %q, want dana", updated.Assignee)
	}

	acts, err := f.svc.Activities(ctx, f.owner, issue.ID)
	if err != nil {
		t.Fatalf("Activities: %v", err)
	}
	if len(acts) != 2 {
		t.Fatalf("got %d activities, want create + update", len(acts))
	}
	wantLine := fmt.Sprintf("assignee_id:  → %d", f.dev.ID)
	if acts[0].Changes != wantLine {
		t.Errorf("Changes = %q, want %q", acts[0].Changes, wantLine)
	}
}

func TestUpdateReparentCycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	epic := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, Title: "epic", IssueType: types.TypeEpic,
	})
	story := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, ParentID: ptr(epic.ID),
		Title: "story", IssueType: types.TypeStory,
	})

	// Epics take no parent at all.
	standalone := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, Title: "unrelated story", IssueType: types.TypeStory,
	})
	_, err := f.svc.UpdateIssue(ctx, f.owner, epic.ID, map[string]any{"parent_id": standalone.ID})
	if !errors.Is(err, validation.ErrInvalidHierarchy) {
		t.Fatalf("err = %v, want ErrInvalidHierarchy", err)
	}

	// A true cycle: hang an issue under its own descendant.
	task := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, ParentID: ptr(story.ID),
		Title: "task", IssueType: types.TypeTask,
	})
	bug := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, ParentID: ptr(task.ID),
		Title: "bug", IssueType: types.TypeBug,
	})
	_, err = f.svc.UpdateIssue(ctx, f.owner, task.ID, map[string]any{"parent_id": bug.ID})
	if !errors.Is(err, validation.ErrCircularDependency) {
		t.Fatalf("err = %v, want ErrCircularDependency", err)
	}
}

func TestUpdateNoopProducesNoActivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, Title: "stable", IssueType: types.TypeTask,
	})
	if _, err := f.svc.UpdateIssue(ctx, f.owner, issue.ID, map[string]any{"title": "stable"}); err != nil {
		t.Fatalf("UpdateIssue: %v", err)
	}
	acts, err := f.svc.Activities(ctx, f.owner, issue.ID)
	if err != nil {
		t.Fatalf("Activities: %v", err)
	}
	if len(acts) != 1 {
		t.Errorf("got %d activities, a no-op update must not append one", len(acts))
	}
}

func TestUpdatePermission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, TeamID: ptr(f.team.ID),
		Title: "locked", IssueType: types.TypeTask,
	})
	_, err := f.svc.UpdateIssue(ctx, f.outsider, issue.ID, map[string]any{"title": "hijack"})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	if !strings.Contains(err.Error(), "no permission to edit") {
		t.Errorf("err = %q, want edit denial wording", err)
	}
}

func TestDeleteScopedToOwnTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A second team in the same project led by dana.
	other := &types.Team{
		Name: "Platform", ProjectID: f.project.ID,
		LeadID: ptr(f.dev.ID), MemberIDs: []int64{f.dev.ID},
	}
	if err := f.store.CreateTeam(ctx, other); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	f.dev = f.user(t, f.dev.ID)

	issue := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, TeamID: ptr(f.team.ID),
		Title: "core work", IssueType: types.TypeTask,
	})

	// dana leads Platform, not Core: editing is allowed, deleting is not.
	if _, err := f.svc.UpdateIssue(ctx, f.dev, issue.ID, map[string]any{"priority": "High"}); err != nil {
		t.Fatalf("cross-team lead update: %v", err)
	}
	if err := f.svc.DeleteIssue(ctx, f.dev, issue.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("cross-team delete err = %v, want ErrPermissionDenied", err)
	}

	if err := f.svc.DeleteIssue(ctx, f.lead, issue.ID); err != nil {
		t.Fatalf("own-team lead delete: %v", err)
	}
	if _, err := f.store.GetIssue(ctx, issue.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetIssue after delete = %v, want ErrNotFound", err)
	}
}

func TestDeleteDetachesChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	story := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, Title: "story", IssueType: types.TypeStory,
	})
	task := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, ParentID: ptr(story.ID),
		Title: "task", IssueType: types.TypeTask,
	})

	if err := f.svc.DeleteIssue(ctx, f.owner, story.ID); err != nil {
		t.Fatalf("DeleteIssue: %v", err)
	}
	got, err := f.store.GetIssue(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetIssue(child): %v", err)
	}
	if got.ParentID != nil {
		t.Errorf("child ParentID = %v, want detached", got.ParentID)
	}
}

func TestInactiveProjectBlocksMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, Title: "frozen", IssueType: types.TypeTask,
	})
	if err := f.store.SetProjectActive(ctx, f.project.ID, false); err != nil {
		t.Fatalf("SetProjectActive: %v", err)
	}

	root := &types.User{Username: "root", Email: "root@storydeck.local", Role: types.RoleAdmin, ViewMode: types.ViewModeAdmin}
	if err := f.store.CreateUser(ctx, root); err != nil {
		t.Fatalf("CreateUser(root): %v", err)
	}
	root = f.user(t, root.ID)
	if !root.IsMasterAdmin() {
		t.Fatal("master override not applied")
	}

	if _, err := f.svc.CreateIssue(ctx, root, CreateIssueRequest{
		ProjectID: f.project.ID, Title: "nope", IssueType: types.TypeTask,
	}); !errors.Is(err, storage.ErrInactiveProject) {
		t.Errorf("create on inactive project err = %v, want ErrInactiveProject", err)
	}
	if _, err := f.svc.UpdateIssue(ctx, root, issue.ID, map[string]any{"title": "nope"}); !errors.Is(err, storage.ErrInactiveProject) {
		t.Errorf("update on inactive project err = %v, want ErrInactiveProject", err)
	}
	if err := f.svc.DeleteIssue(ctx, root, issue.ID); !errors.Is(err, storage.ErrInactiveProject) {
		t.Errorf("delete on inactive project err = %v, want ErrInactiveProject", err)
	}
}

func TestGetIssueVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	issue := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, TeamID: ptr(f.team.ID),
		Title: "internal", IssueType: types.TypeTask,
	})

	if _, err := f.svc.GetIssue(ctx, f.lead, issue.ID); err != nil {
		t.Errorf("team lead view: %v", err)
	}
	if _, err := f.svc.GetIssue(ctx, f.outsider, issue.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("outsider view err = %v, want ErrPermissionDenied", err)
	}
	// Plain membership is not enough to view.
	if _, err := f.svc.GetIssue(ctx, f.dev, issue.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("plain member view err = %v, want ErrPermissionDenied", err)
	}
}

func TestSearchVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine := f.create(t, f.dev, CreateIssueRequest{
		ProjectID: f.project.ID, TeamID: ptr(f.team.ID),
		Title: "payment retry", IssueType: types.TypeTask,
	})
	teamIssue := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, TeamID: ptr(f.team.ID),
		Title: "payment ledger", IssueType: types.TypeTask,
	})

	// Second project the developer has nothing to do with.
	other := &types.Project{Name: "Billing", Prefix: "BL", OwnerID: f.owner.ID, Active: true}
	if err := f.store.CreateProject(ctx, other); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	hidden := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: other.ID, Title: "payment export", IssueType: types.TypeTask,
	})

	results, err := f.svc.SearchIssues(ctx, f.dev, "payment")
	if err != nil {
		t.Fatalf("SearchIssues: %v", err)
	}
	ids := make(map[int64]bool)
	for _, i := range results {
		ids[i.ID] = true
	}
	if !ids[mine.ID] || !ids[teamIssue.ID] {
		t.Errorf("results = %v, want own and team issues visible", ids)
	}
	if ids[hidden.ID] {
		t.Error("issue from an unrelated project leaked into results")
	}

	admin := &types.User{Username: "ada", Email: "ada@example.com", Role: types.RoleAdmin, ViewMode: types.ViewModeAdmin}
	if err := f.store.CreateUser(ctx, admin); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	all, err := f.svc.SearchIssues(ctx, f.user(t, admin.ID), "payment")
	if err != nil {
		t.Fatalf("SearchIssues(admin): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("admin sees %d results, want 3", len(all))
	}
}

func TestAvailableParents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	story := f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, Title: "story", IssueType: types.TypeStory,
	})
	f.create(t, f.owner, CreateIssueRequest{
		ProjectID: f.project.ID, ParentID: ptr(story.ID),
		Title: "task", IssueType: types.TypeTask,
	})

	// Bugs attach to either stories or tasks.
	parents, err := f.svc.AvailableParents(ctx, f.owner, f.project.ID, types.TypeBug, nil)
	if err != nil {
		t.Fatalf("AvailableParents: %v", err)
	}
	if len(parents) != 2 {
		t.Fatalf("got %d candidates, want story and task", len(parents))
	}

	// excludeID keeps the issue being edited out of its own candidates.
	parents, err = f.svc.AvailableParents(ctx, f.owner, f.project.ID, types.TypeTask, ptr(story.ID))
	if err != nil {
		t.Fatalf("AvailableParents: %v", err)
	}
	if len(parents) != 0 {
		t.Errorf("got %d candidates, want the only story excluded", len(parents))
	}

	// Epics never have parents.
	parents, err = f.svc.AvailableParents(ctx, f.owner, f.project.ID, types.TypeEpic, nil)
	if err != nil {
		t.Fatalf("AvailableParents: %v", err)
	}
	if len(parents) != 0 {
		t.Errorf("got %d candidates for an epic, want none", len(parents))
	}

	// Non-owner in Admin mode is turned away.
	adminMode := *f.dev
	adminMode.ViewMode = types.ViewModeAdmin
	if _, err := f.svc.AvailableParents(ctx, &adminMode, f.project.ID, types.TypeBug, nil); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}
	// Owner stuck in Developer mode likewise.
	devMode := *f.owner
	devMode.ViewMode = types.ViewModeDeveloper
	if _, err := f.svc.AvailableParents(ctx, &devMode, f.project.ID, types.TypeBug, nil); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestAddTeamMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The team's own lead manages its roster.
	if err := f.svc.AddTeamMember(ctx, f.lead, f.team.ID, f.outsider.ID); err != nil {
		t.Fatalf("lead adding member: %v", err)
	}
	team, err := f.store.GetTeam(ctx, f.team.ID)
	if err != nil {
		t.Fatalf("GetTeam: %v", err)
	}
	if !team.HasMember(f.outsider.ID) {
		t.Error("member was not added")
	}

	// A plain member cannot.
	if err := f.svc.AddTeamMember(ctx, f.dev, f.team.ID, f.owner.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("plain member err = %v, want ErrPermissionDenied", err)
	}

	// Unknown users are rejected before the roster changes.
	if err := f.svc.AddTeamMember(ctx, f.lead, f.team.ID, 9999); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unknown user err = %v, want ErrNotFound", err)
	}
}

package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/storydeck/storydeck/internal/types"
)

type projectMap map[int64]*types.Project

func (m projectMap) GetProject(_ context.Context, id int64) (*types.Project, error) {
	p, ok := m[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

func idp(id int64) *int64 { return &id }

const (
	projActive   = int64(1)
	projInactive = int64(2)
	projOther    = int64(3)
)

func newTestEvaluator() *Evaluator {
	return NewEvaluator(projectMap{
		projActive:   {ID: projActive, Name: "Apollo", OwnerID: 100, Active: true},
		projInactive: {ID: projInactive, Name: "Frozen", OwnerID: 100, Active: false},
		projOther:    {ID: projOther, Name: "Other", OwnerID: 200, Active: true},
	})
}

func masterAdmin() *types.User {
	return &types.User{ID: 1, Email: "root@storydeck.local", Role: types.RoleMasterAdmin, ViewMode: types.ViewModeAdmin}
}

func TestCanCreateIssue(t *testing.T) {
	e := newTestEvaluator()
	ctx := context.Background()

	teamX := &types.Team{ID: 10, ProjectID: projActive, LeadID: idp(30)}

	owner := &types.User{ID: 100, Role: types.RoleDeveloper, ViewMode: types.ViewModeAdmin}
	ownerDevMode := &types.User{ID: 100, Role: types.RoleDeveloper, ViewMode: types.ViewModeDeveloper}
	lead := &types.User{ID: 30, Role: types.RoleDeveloper, ViewMode: types.ViewModeDeveloper, LedTeams: []*types.Team{teamX}}
	member := &types.User{ID: 31, Role: types.RoleDeveloper, ViewMode: types.ViewModeDeveloper, Teams: []*types.Team{teamX}}
	outsider := &types.User{ID: 32, Role: types.RoleDeveloper, ViewMode: types.ViewModeDeveloper}
	adminModeNonOwner := &types.User{ID: 33, Role: types.RoleAdmin, ViewMode: types.ViewModeAdmin}

	tests := []struct {
		name      string
		user      *types.User
		projectID int64
		teamID    *int64
		want      bool
	}{
		{"missing project fails closed", masterAdmin(), 999, nil, false},
		{"inactive project blocks even master admin", masterAdmin(), projInactive, nil, false},
		{"master admin", masterAdmin(), projActive, nil, true},
		{"owner in admin view mode", owner, projActive, nil, true},
		{"owner in developer view mode is blocked", ownerDevMode, projActive, nil, false},
		{"admin view mode non-owner", adminModeNonOwner, projActive, nil, false},
		{"developer mode team lead", lead, projActive, idp(10), true},
		{"developer mode team member", member, projActive, idp(10), true},
		{"membership is project-wide, not team-scoped", member, projActive, idp(999), true},
		{"developer mode outsider", outsider, projActive, idp(10), false},
		{"member of team in another project", member, projOther, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.CanCreateIssue(ctx, tt.user, tt.projectID, tt.teamID); got != tt.want {
				t.Errorf("CanCreateIssue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanUpdateIssue(t *testing.T) {
	e := newTestEvaluator()

	active := &types.Project{ID: projActive, OwnerID: 100, Active: true}
	inactive := &types.Project{ID: projInactive, OwnerID: 100, Active: false}

	teamX := &types.Team{ID: 10, ProjectID: projActive}
	teamY := &types.Team{ID: 11, ProjectID: projActive}

	issue := &types.Issue{ID: 1, ProjectID: projActive, TeamID: idp(10), AssigneeID: idp(50)}
	issueNoTeam := &types.Issue{ID: 2, ProjectID: projActive, AssigneeID: idp(50)}

	adminRole := &types.User{ID: 2, Role: types.RoleAdmin, ViewMode: types.ViewModeDeveloper}
	ownerRole := &types.User{ID: 3, Role: types.RoleOwner, ViewMode: types.ViewModeDeveloper}
	ownTeamLead := &types.User{ID: 30, Role: types.RoleDeveloper, LedTeams: []*types.Team{teamX}}
	otherTeamLead := &types.User{ID: 31, Role: types.RoleDeveloper, LedTeams: []*types.Team{teamY}}
	assignee := &types.User{ID: 50, Role: types.RoleDeveloper}
	otherDev := &types.User{ID: 51, Role: types.RoleDeveloper}
	testerAssignee := &types.User{ID: 50, Role: types.RoleTester}

	tests := []struct {
		name    string
		user    *types.User
		issue   *types.Issue
		project *types.Project
		want    bool
	}{
		{"inactive project blocks master admin", masterAdmin(), issue, inactive, false},
		{"master admin", masterAdmin(), issue, active, true},
		{"ADMIN role", adminRole, issue, active, true},
		{"OWNER role", ownerRole, issue, active, true},
		{"developer leading the issue's team", ownTeamLead, issue, active, true},
		{"developer leading another team in the project", otherTeamLead, issue, active, true},
		{"direct assignee", assignee, issue, active, true},
		{"unrelated developer", otherDev, issue, active, false},
		{"tester is denied even as assignee", testerAssignee, issue, active, false},
		{"assignee on teamless issue", assignee, issueNoTeam, active, true},
		{"assignee blocked by inactive project", assignee, issue, inactive, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.CanUpdateIssue(tt.user, tt.issue, tt.project); got != tt.want {
				t.Errorf("CanUpdateIssue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanDeleteIssue(t *testing.T) {
	e := newTestEvaluator()

	active := &types.Project{ID: projActive, OwnerID: 100, Active: true}
	inactive := &types.Project{ID: projInactive, OwnerID: 100, Active: false}

	teamX := &types.Team{ID: 10, ProjectID: projActive}
	teamY := &types.Team{ID: 11, ProjectID: projActive}
	// Same team id, different project: leading it must not grant delete here.
	teamForeign := &types.Team{ID: 10, ProjectID: projOther}

	issue := &types.Issue{ID: 1, ProjectID: projActive, TeamID: idp(10)}
	issueNoTeam := &types.Issue{ID: 2, ProjectID: projActive}

	ownerAdminMode := &types.User{ID: 100, Role: types.RoleDeveloper, ViewMode: types.ViewModeAdmin}
	ownerDevMode := &types.User{ID: 100, Role: types.RoleDeveloper, ViewMode: types.ViewModeDeveloper}
	adminRole := &types.User{ID: 2, Role: types.RoleAdmin, ViewMode: types.ViewModeDeveloper}
	ownTeamLead := &types.User{ID: 30, Role: types.RoleDeveloper, LedTeams: []*types.Team{teamX}}
	otherTeamLead := &types.User{ID: 31, Role: types.RoleDeveloper, LedTeams: []*types.Team{teamY}}
	foreignLead := &types.User{ID: 32, Role: types.RoleDeveloper, LedTeams: []*types.Team{teamForeign}}

	tests := []struct {
		name    string
		user    *types.User
		issue   *types.Issue
		project *types.Project
		want    bool
	}{
		{"inactive project blocks master admin", masterAdmin(), issue, inactive, false},
		{"master admin", masterAdmin(), issue, active, true},
		{"owner in admin view mode", ownerAdminMode, issue, active, true},
		{"owner in developer view mode", ownerDevMode, issue, active, false},
		{"ADMIN role alone does not delete", adminRole, issue, active, false},
		{"issue's own team lead", ownTeamLead, issue, active, true},
		{"lead of a different team in the project", otherTeamLead, issue, active, false},
		{"lead of same team id in another project", foreignLead, issue, active, false},
		{"own team lead with teamless issue", ownTeamLead, issueNoTeam, active, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.CanDeleteIssue(tt.user, tt.issue, tt.project); got != tt.want {
				t.Errorf("CanDeleteIssue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanViewIssue(t *testing.T) {
	e := newTestEvaluator()

	teamX := &types.Team{ID: 10, ProjectID: projActive}
	teamY := &types.Team{ID: 11, ProjectID: projActive}
	issue := &types.Issue{ID: 1, ProjectID: projActive, TeamID: idp(10), AssigneeID: idp(50)}

	tests := []struct {
		name string
		user *types.User
		want bool
	}{
		{"master admin", masterAdmin(), true},
		{"ADMIN role", &types.User{ID: 2, Role: types.RoleAdmin}, true},
		{"OWNER role", &types.User{ID: 3, Role: types.RoleOwner}, true},
		{"own team lead", &types.User{ID: 30, Role: types.RoleDeveloper, LedTeams: []*types.Team{teamX}}, true},
		{"any team lead in project", &types.User{ID: 31, Role: types.RoleDeveloper, LedTeams: []*types.Team{teamY}}, true},
		{"direct assignee", &types.User{ID: 50, Role: types.RoleDeveloper}, true},
		{"plain team member is not enough", &types.User{ID: 51, Role: types.RoleDeveloper, Teams: []*types.Team{teamX}}, false},
		{"unrelated developer", &types.User{ID: 52, Role: types.RoleDeveloper}, false},
		{"tester", &types.User{ID: 50, Role: types.RoleTester}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.CanViewIssue(tt.user, issue); got != tt.want {
				t.Errorf("CanViewIssue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsProjectLead(t *testing.T) {
	e := newTestEvaluator()
	ctx := context.Background()

	teamX := &types.Team{ID: 10, ProjectID: projActive}

	owner := &types.User{ID: 100, Role: types.RoleTester}
	lead := &types.User{ID: 30, Role: types.RoleTester, LedTeams: []*types.Team{teamX}}
	nobody := &types.User{ID: 31, Role: types.RoleAdmin}

	if !e.IsProjectLead(ctx, owner, projActive) {
		t.Error("project owner must be a project lead regardless of role")
	}
	if !e.IsProjectLead(ctx, lead, projActive) {
		t.Error("team lead must be a project lead regardless of role")
	}
	if e.IsProjectLead(ctx, nobody, projActive) {
		t.Error("ADMIN role alone must not make a project lead")
	}
	if e.IsProjectLead(ctx, lead, projOther) {
		t.Error("leadership must be scoped to the team's project")
	}
}

func TestCanManageTeamMembers(t *testing.T) {
	e := newTestEvaluator()
	ctx := context.Background()

	team := &types.Team{ID: 10, ProjectID: projActive, LeadID: idp(30)}
	otherTeam := &types.Team{ID: 11, ProjectID: projActive}

	teamLead := &types.User{ID: 30, Role: types.RoleDeveloper}
	adminRole := &types.User{ID: 2, Role: types.RoleAdmin}
	projectOwner := &types.User{ID: 100, Role: types.RoleDeveloper}
	leadElsewhere := &types.User{ID: 31, Role: types.RoleDeveloper, LedTeams: []*types.Team{{ID: 12, ProjectID: projActive}}}
	outsider := &types.User{ID: 40, Role: types.RoleDeveloper}

	tests := []struct {
		name string
		user *types.User
		team *types.Team
		want bool
	}{
		{"master admin", masterAdmin(), team, true},
		{"ADMIN role", adminRole, team, true},
		{"team's own lead", teamLead, team, true},
		{"project owner via project lead", projectOwner, otherTeam, true},
		{"lead of sibling team via project lead", leadElsewhere, team, true},
		{"outsider", outsider, team, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.CanManageTeamMembers(ctx, tt.user, tt.team); got != tt.want {
				t.Errorf("CanManageTeamMembers() = %v, want %v", got, tt.want)
			}
		})
	}
}

// The lead/assignee scenario: team lead L leads team X in active project P;
// issue I belongs to X, assigned to U ≠ L.
func TestLeadAndAssigneeScenario(t *testing.T) {
	e := newTestEvaluator()
	project := &types.Project{ID: projActive, OwnerID: 100, Active: true}
	teamX := &types.Team{ID: 10, ProjectID: projActive, LeadID: idp(30)}
	issue := &types.Issue{ID: 1, ProjectID: projActive, TeamID: idp(10), AssigneeID: idp(50)}

	leadL := &types.User{ID: 30, Role: types.RoleDeveloper, LedTeams: []*types.Team{teamX}}
	userU := &types.User{ID: 50, Role: types.RoleDeveloper, Teams: []*types.Team{teamX}}
	otherDev := &types.User{ID: 60, Role: types.RoleDeveloper}

	if !e.CanUpdateIssue(leadL, issue, project) {
		t.Error("lead must update own team's issue")
	}
	if !e.CanDeleteIssue(leadL, issue, project) {
		t.Error("lead must delete own team's issue")
	}
	if !e.CanUpdateIssue(userU, issue, project) {
		t.Error("direct assignee must update")
	}
	if e.CanUpdateIssue(otherDev, issue, project) {
		t.Error("developer outside team X must not update")
	}
}

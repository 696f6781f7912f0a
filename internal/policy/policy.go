// Package policy is the access-control evaluator: it combines a user's
// global role, view mode, project ownership, team leadership, team
// membership, and direct assignment into a single allow/deny decision per
// action.
//
// Every function returns a plain bool and never panics on denial; the caller
// decides how a denial surfaces. The functions are pure over the snapshots
// they receive; the only read performed here is the project lookup needed
// for create and lead checks, via the ProjectReader the caller supplies.
//
// The master-admin override (reserved identity, view mode pinned to ADMIN)
// is applied when the user snapshot is resolved, so by the time a User
// reaches this package its Role and ViewMode are already effective values.
package policy

import (
	"context"

	"github.com/storydeck/storydeck/internal/types"
)

// ProjectReader supplies project snapshots for decisions that need ownership
// or the active flag of a project not already loaded by the caller.
type ProjectReader interface {
	GetProject(ctx context.Context, id int64) (*types.Project, error)
}

// Evaluator computes allow/deny decisions. The zero value is unusable; use
// NewEvaluator.
type Evaluator struct {
	projects ProjectReader
}

// NewEvaluator builds an evaluator over the given project reader.
func NewEvaluator(projects ProjectReader) *Evaluator {
	return &Evaluator{projects: projects}
}

// CanCreateIssue decides whether user may create an issue in the project.
// Fails closed when the project does not exist or is inactive.
//
// Owners in ADMIN view mode may create; owners in DEVELOPER view mode may
// not and must switch modes first. Non-owners in DEVELOPER mode may create
// iff they lead or belong to some team in the project; membership is
// evaluated project-wide, not restricted to teamID.
func (e *Evaluator) CanCreateIssue(ctx context.Context, user *types.User, projectID int64, teamID *int64) bool {
	_ = teamID // part of the contract; membership is project-wide

	project, err := e.projects.GetProject(ctx, projectID)
	if err != nil || project == nil || !project.Active {
		return false
	}

	if user.IsMasterAdmin() {
		return true
	}

	isOwner := project.OwnerID == user.ID
	if user.ViewMode == types.ViewModeAdmin {
		return isOwner
	}

	// DEVELOPER view mode.
	if isOwner {
		return false
	}
	return user.MemberOfTeamInProject(projectID)
}

// CanUpdateIssue decides whether user may update the issue. project is the
// issue's project snapshot; an inactive project denies everyone.
func (e *Evaluator) CanUpdateIssue(user *types.User, issue *types.Issue, project *types.Project) bool {
	if project == nil || !project.Active {
		return false
	}

	if user.IsMasterAdmin() || user.Role == types.RoleAdmin || user.Role == types.RoleOwner {
		return true
	}

	if user.Role == types.RoleDeveloper {
		if issue.TeamID != nil && e.leadsIssueTeam(user, issue) {
			return true
		}
		// Project-scoped lead override: any team led in the issue's project.
		if user.LeadsTeamInProject(issue.ProjectID) {
			return true
		}
		return issue.AssigneeID != nil && *issue.AssigneeID == user.ID
	}

	return false
}

// CanDeleteIssue decides whether user may delete the issue. Unlike update,
// delete authority does not extend to every team lead in the project: only
// the issue's own team's lead qualifies.
func (e *Evaluator) CanDeleteIssue(user *types.User, issue *types.Issue, project *types.Project) bool {
	if project == nil || !project.Active {
		return false
	}

	if user.IsMasterAdmin() {
		return true
	}

	if user.ViewMode == types.ViewModeAdmin && project.OwnerID == user.ID {
		return true
	}

	return issue.TeamID != nil && e.leadsIssueTeam(user, issue)
}

// CanViewIssue decides whether user may read the issue. There is no inactive
// check here: reads of archived projects remain allowed.
func (e *Evaluator) CanViewIssue(user *types.User, issue *types.Issue) bool {
	if user.IsMasterAdmin() || user.Role == types.RoleAdmin || user.Role == types.RoleOwner {
		return true
	}

	if user.Role == types.RoleDeveloper {
		if issue.TeamID != nil && e.leadsIssueTeam(user, issue) {
			return true
		}
		if user.LeadsTeamInProject(issue.ProjectID) {
			return true
		}
		return issue.AssigneeID != nil && *issue.AssigneeID == user.ID
	}

	return false
}

// IsProjectLead reports whether user owns the project or leads at least one
// team within it. Role is not consulted.
func (e *Evaluator) IsProjectLead(ctx context.Context, user *types.User, projectID int64) bool {
	project, err := e.projects.GetProject(ctx, projectID)
	if err == nil && project != nil && project.OwnerID == user.ID {
		return true
	}
	return user.LeadsTeamInProject(projectID)
}

// CanManageTeamMembers decides whether user may change the given team's
// roster: master admin, ADMIN role, the team's own lead, or any project
// lead of the team's project.
func (e *Evaluator) CanManageTeamMembers(ctx context.Context, user *types.User, team *types.Team) bool {
	if user.IsMasterAdmin() || user.Role == types.RoleAdmin {
		return true
	}
	if team.LeadID != nil && *team.LeadID == user.ID {
		return true
	}
	return e.IsProjectLead(ctx, user, team.ProjectID)
}

// leadsIssueTeam reports whether user leads the issue's assigned team and
// that team belongs to the issue's project.
func (e *Evaluator) leadsIssueTeam(user *types.User, issue *types.Issue) bool {
	if issue.TeamID == nil {
		return false
	}
	for _, t := range user.LedTeams {
		if t.ID == *issue.TeamID && t.ProjectID == issue.ProjectID {
			return true
		}
	}
	return false
}

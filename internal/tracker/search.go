package tracker

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/storydeck/storydeck/internal/types"
)

const searchLimit = 50

// SearchIssues finds issues matching query in title, description or story
// code, filtered to what the actor can see. Master admins and ADMIN-role
// users see everything; everyone else sees issues they are assigned to,
// issues on their teams, and issues in projects they lead teams for or hold
// assignments in.
func (s *Service) SearchIssues(ctx context.Context, actor *types.User, query string) ([]*types.Issue, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.SearchIssues",
		trace.WithAttributes(attribute.String("query", query)))
	defer span.End()

	matches, err := s.store.SearchIssues(ctx, query)
	if err != nil {
		return nil, err
	}

	if actor.IsMasterAdmin() || actor.Role == types.RoleAdmin {
		if len(matches) > searchLimit {
			matches = matches[:searchLimit]
		}
		return matches, nil
	}

	memberTeams := make(map[int64]bool, len(actor.Teams))
	for _, t := range actor.Teams {
		memberTeams[t.ID] = true
	}
	ledProjects := make(map[int64]bool, len(actor.LedTeams))
	for _, t := range actor.LedTeams {
		ledProjects[t.ProjectID] = true
	}
	assignedProjects := make(map[int64]bool)
	for _, issue := range matches {
		if issue.AssigneeID != nil && *issue.AssigneeID == actor.ID {
			assignedProjects[issue.ProjectID] = true
		}
	}

	visible := matches[:0]
	for _, issue := range matches {
		switch {
		case issue.AssigneeID != nil && *issue.AssigneeID == actor.ID:
		case issue.TeamID != nil && memberTeams[*issue.TeamID]:
		case ledProjects[issue.ProjectID]:
		case assignedProjects[issue.ProjectID]:
		default:
			continue
		}
		visible = append(visible, issue)
		if len(visible) == searchLimit {
			break
		}
	}
	return visible, nil
}

// AvailableParents lists the issues in a project that a new or re-parented
// issue of the given type could attach to. The caller must stand on the
// right side of the owner/view-mode split: Admin mode requires owning the
// project, Developer mode requires not owning it. excludeID keeps an issue
// from offering itself as its own parent.
func (s *Service) AvailableParents(ctx context.Context, actor *types.User, projectID int64, issueType types.IssueType, excludeID *int64) ([]*types.Issue, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.AvailableParents",
		trace.WithAttributes(
			attribute.Int64("project.id", projectID),
			attribute.String("issue.type", string(issueType))))
	defer span.End()

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if !actor.IsMasterAdmin() {
		isOwner := project.OwnerID == actor.ID
		if actor.ViewMode == types.ViewModeAdmin && !isOwner {
			return nil, fmt.Errorf("%w: not the owner of this project", ErrPermissionDenied)
		}
		if actor.ViewMode == types.ViewModeDeveloper && isOwner {
			return nil, fmt.Errorf("%w: project owners must switch to Admin mode", ErrPermissionDenied)
		}
	}

	targets := issueType.ValidParents()
	if len(targets) == 0 {
		return []*types.Issue{}, nil
	}
	wanted := make(map[types.IssueType]bool, len(targets))
	for _, t := range targets {
		wanted[t] = true
	}

	all, err := s.store.ListIssuesByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	parents := make([]*types.Issue, 0, len(all))
	for _, issue := range all {
		if !wanted[issue.IssueType] {
			continue
		}
		if excludeID != nil && issue.ID == *excludeID {
			continue
		}
		parents = append(parents, issue)
	}
	return parents, nil
}

package tracker

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/storydeck/storydeck/internal/audit"
	"github.com/storydeck/storydeck/internal/idgen"
	"github.com/storydeck/storydeck/internal/storage"
	"github.com/storydeck/storydeck/internal/types"
	"github.com/storydeck/storydeck/internal/validation"
)

// CreateIssueRequest carries the caller-supplied fields for a new issue.
type CreateIssueRequest struct {
	ProjectID     int64
	TeamID        *int64
	ParentID      *int64
	Title         string
	Description   string
	IssueType     types.IssueType
	Status        types.Status
	Priority      types.Priority
	AssigneeID    *int64
	AssigneeName  string
	Reviewer      string
	ReleaseNumber string
	SprintNumber  string
}

// CreateIssue runs the full create sequence: assignee resolution, the
// permission check, hierarchy validation, story code allocation, the insert
// and its audit record. Allocation, insert and audit share one transaction
// so concurrent creations cannot allocate the same code.
func (s *Service) CreateIssue(ctx context.Context, actor *types.User, req CreateIssueRequest) (*types.Issue, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.CreateIssue",
		trace.WithAttributes(attribute.Int64("project.id", req.ProjectID)))
	defer span.End()

	project, err := s.loadActiveProject(ctx, req.ProjectID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	assigneeID, assigneeName, err := s.resolveAssignee(ctx, actor, req)
	if err != nil {
		return nil, err
	}

	if !s.eval.CanCreateIssue(ctx, actor, req.ProjectID, req.TeamID) {
		return nil, s.createDenial(actor, project)
	}

	issue := &types.Issue{
		ProjectID:     req.ProjectID,
		TeamID:        req.TeamID,
		ParentID:      req.ParentID,
		Title:         req.Title,
		Description:   req.Description,
		IssueType:     req.IssueType,
		Status:        req.Status,
		Priority:      req.Priority,
		AssigneeID:    assigneeID,
		Assignee:      assigneeName,
		Reviewer:      req.Reviewer,
		ReleaseNumber: req.ReleaseNumber,
		SprintNumber:  req.SprintNumber,
	}
	issue.SetDefaults()

	err = s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		if err := validation.ValidateHierarchy(ctx, tx, req.ParentID, issue.IssueType, nil); err != nil {
			return err
		}

		prefix := idgen.ProjectPrefix(project)
		codes, err := tx.ListStoryCodes(ctx, prefix)
		if err != nil {
			return err
		}
		issue.StoryCode = idgen.NextStoryCode(project, codes)

		// A directly assigned user joins the issue's team roster if not
		// already on it.
		if assigneeID != nil && req.TeamID != nil {
			team, err := tx.GetTeam(ctx, *req.TeamID)
			if err != nil {
				return fmt.Errorf("team %d: %w", *req.TeamID, err)
			}
			if !team.HasMember(*assigneeID) {
				if err := tx.AddTeamMember(ctx, team.ID, *assigneeID); err != nil {
					return err
				}
			}
		}

		if err := tx.CreateIssue(ctx, issue); err != nil {
			return err
		}

		actorID := actor.ID
		activity := audit.NewActivity(issue.ID, &actorID, types.ActionCreated, []audit.FieldChange{
			{Field: "Status", Old: "None", New: string(issue.Status)},
		})
		return tx.AddActivity(ctx, activity)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if issue.AssigneeID != nil {
		s.notify(ctx, *issue.AssigneeID, "Issue Assigned",
			fmt.Sprintf("You have been assigned to '%s'", issue.Title))
	}
	return issue, nil
}

// resolveAssignee applies the assignment rules for create. A developer who
// leads neither the target team nor any team in the project is forced to
// self-assign; leads and non-developers may assign anyone, defaulting the
// display name to "Unassigned" when nobody is picked.
func (s *Service) resolveAssignee(ctx context.Context, actor *types.User, req CreateIssueRequest) (*int64, string, error) {
	assigneeID := req.AssigneeID
	assigneeName := req.AssigneeName

	if actor.Role == types.RoleDeveloper && !actor.IsMasterAdmin() {
		isTeamLead := req.TeamID != nil && actor.LeadsTeam(*req.TeamID)
		isProjectLead := actor.LeadsTeamInProject(req.ProjectID)
		if !isTeamLead && !isProjectLead {
			id := actor.ID
			return &id, actor.Username, nil
		}
	}

	if assigneeID != nil {
		target, err := s.store.GetUser(ctx, *assigneeID)
		if err != nil {
			return nil, "", fmt.Errorf("assignee %d: %w", *assigneeID, err)
		}
		return assigneeID, target.Username, nil
	}
	if strings.TrimSpace(assigneeName) == "" {
		assigneeName = "Unassigned"
	}
	return nil, assigneeName, nil
}

// createDenial picks the message explaining why create was denied: the two
// view-mode rules get specific wording, everything else the generic one.
func (s *Service) createDenial(actor *types.User, project *types.Project) error {
	isOwner := project.OwnerID == actor.ID
	switch {
	case actor.ViewMode == types.ViewModeDeveloper && isOwner:
		return fmt.Errorf("%w: project owners must switch to Admin mode to create issues in their own projects", ErrPermissionDenied)
	case actor.ViewMode == types.ViewModeAdmin && !isOwner:
		return fmt.Errorf("%w: in Admin mode, you can only create issues in projects you own", ErrPermissionDenied)
	default:
		return fmt.Errorf("%w: you do not have permission to create issues in this project", ErrPermissionDenied)
	}
}

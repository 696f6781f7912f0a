package tracker

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/storydeck/storydeck/internal/audit"
	"github.com/storydeck/storydeck/internal/storage"
	"github.com/storydeck/storydeck/internal/types"
	"github.com/storydeck/storydeck/internal/validation"
)

// UpdateIssue applies a partial update. updates maps field names to new
// values; absent keys are untouched. Supported keys: title, description,
// status, priority, parent_id, team_id, assignee_id, reviewer,
// release_number, sprint_number. A nil value clears a nullable field.
//
// Developer actors cannot reassign: assignee keys are stripped from their
// updates rather than rejected. Hierarchy validation runs only when the
// parent actually changes; the status guard only when the status does.
func (s *Service) UpdateIssue(ctx context.Context, actor *types.User, issueID int64, updates map[string]any) (*types.Issue, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.UpdateIssue",
		trace.WithAttributes(attribute.Int64("issue.id", issueID)))
	defer span.End()

	issue, err := s.store.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	project, err := s.loadActiveProject(ctx, issue.ProjectID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if !s.eval.CanUpdateIssue(actor, issue, project) {
		return nil, fmt.Errorf("%w: no permission to edit this issue", ErrPermissionDenied)
	}

	if actor.Role == types.RoleDeveloper && !actor.IsMasterAdmin() {
		delete(updates, "assignee_id")
		delete(updates, "assignee")
	}

	var changes []audit.FieldChange
	var notifications []func(context.Context)

	err = s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		changes = changes[:0]
		notifications = notifications[:0]

		if raw, ok := updates["parent_id"]; ok {
			newParent, err := optInt64(raw)
			if err != nil {
				return fmt.Errorf("parent_id: %w", err)
			}
			if c, changed := audit.Compare("parent_id", issue.ParentID, newParent); changed {
				if err := validation.ValidateHierarchy(ctx, tx, newParent, issue.IssueType, &issue.ID); err != nil {
					return err
				}
				changes = append(changes, c)
				issue.ParentID = newParent
			}
		}

		if raw, ok := updates["status"]; ok {
			newStatus := types.Status(asString(raw))
			if newStatus != issue.Status {
				children, err := tx.GetChildren(ctx, issue.ID)
				if err != nil {
					return err
				}
				if err := validation.ValidateStatusTransition(issue, children, newStatus); err != nil {
					return err
				}
				if c, changed := audit.Compare("status", issue.Status, newStatus); changed {
					changes = append(changes, c)
					issue.Status = newStatus
					if issue.AssigneeID != nil {
						assignee, title, status := *issue.AssigneeID, issue.Title, newStatus
						notifications = append(notifications, func(ctx context.Context) {
							s.notify(ctx, assignee, "Status Updated",
								fmt.Sprintf("Story '%s' is now %s", title, status))
						})
					}
				}
			}
		}

		if raw, ok := updates["priority"]; ok {
			newPriority := types.Priority(asString(raw))
			if c, changed := audit.Compare("priority", issue.Priority, newPriority); changed {
				changes = append(changes, c)
				issue.Priority = newPriority
				if issue.AssigneeID != nil {
					assignee, title := *issue.AssigneeID, issue.Title
					notifications = append(notifications, func(ctx context.Context) {
						s.notify(ctx, assignee, "Priority Updated",
							fmt.Sprintf("Priority for '%s' changed to %s", title, newPriority))
					})
				}
			}
		}

		if raw, ok := updates["assignee_id"]; ok {
			newAssignee, err := optInt64(raw)
			if err != nil {
				return fmt.Errorf("assignee_id: %w", err)
			}
			if c, changed := audit.Compare("assignee_id", issue.AssigneeID, newAssignee); changed {
				changes = append(changes, c)
				issue.AssigneeID = newAssignee
				issue.Assignee = ""
				if newAssignee != nil {
					issue.Assignee = "Unknown"
					if u, err := tx.GetUser(ctx, *newAssignee); err == nil {
						issue.Assignee = u.Username
					}
					assignee, title := *newAssignee, issue.Title
					notifications = append(notifications, func(ctx context.Context) {
						s.notify(ctx, assignee, "Issue Assigned",
							fmt.Sprintf("You have been assigned to '%s'", title))
					})
				}
			}
		}

		for _, f := range []struct {
			key string
			ptr *string
		}{
			{"title", &issue.Title},
			{"description", &issue.Description},
			{"reviewer", &issue.Reviewer},
			{"release_number", &issue.ReleaseNumber},
			{"sprint_number", &issue.SprintNumber},
		} {
			if raw, ok := updates[f.key]; ok {
				newVal := asString(raw)
				if c, changed := audit.Compare(f.key, *f.ptr, newVal); changed {
					changes = append(changes, c)
					*f.ptr = newVal
				}
			}
		}

		if raw, ok := updates["team_id"]; ok {
			newTeam, err := optInt64(raw)
			if err != nil {
				return fmt.Errorf("team_id: %w", err)
			}
			if c, changed := audit.Compare("team_id", issue.TeamID, newTeam); changed {
				if newTeam != nil {
					if _, err := tx.GetTeam(ctx, *newTeam); err != nil {
						return fmt.Errorf("team %d: %w", *newTeam, err)
					}
				}
				changes = append(changes, c)
				issue.TeamID = newTeam
			}
		}

		if len(changes) == 0 {
			return nil
		}
		if err := tx.UpdateIssue(ctx, issue); err != nil {
			return err
		}

		actorID := actor.ID
		activity := audit.NewActivity(issue.ID, &actorID, types.ActionUpdated, changes)
		if activity == nil {
			return nil
		}
		return tx.AddActivity(ctx, activity)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for _, fire := range notifications {
		fire(ctx)
	}
	return issue, nil
}

// asString renders an update value for the string-typed fields.
func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case types.Status:
		return string(x)
	case types.Priority:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// optInt64 normalizes the nullable id fields: nil clears, int64 and *int64
// set.
func optInt64(v any) (*int64, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case *int64:
		return x, nil
	case int64:
		return &x, nil
	case int:
		id := int64(x)
		return &id, nil
	default:
		return nil, fmt.Errorf("expected integer id, got %T", v)
	}
}

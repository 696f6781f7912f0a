package tracker

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/storydeck/storydeck/internal/storage"
	"github.com/storydeck/storydeck/internal/types"
)

// DeleteIssue removes an issue. Children are detached, not deleted.
// Deletion is narrower than update: a team lead may only delete issues
// belonging to their own team.
func (s *Service) DeleteIssue(ctx context.Context, actor *types.User, issueID int64) error {
	ctx, span := s.tracer.Start(ctx, "tracker.DeleteIssue",
		trace.WithAttributes(attribute.Int64("issue.id", issueID)))
	defer span.End()

	issue, err := s.store.GetIssue(ctx, issueID)
	if err != nil {
		return err
	}
	project, err := s.loadActiveProject(ctx, issue.ProjectID)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if !s.eval.CanDeleteIssue(actor, issue, project) {
		return fmt.Errorf("%w: no permission to delete this issue", ErrPermissionDenied)
	}

	return s.store.RunInTransaction(ctx, func(tx storage.Transaction) error {
		return tx.DeleteIssue(ctx, issueID)
	})
}

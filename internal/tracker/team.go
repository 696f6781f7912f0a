package tracker

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/storydeck/storydeck/internal/types"
)

// AddTeamMember adds a user to a team's roster. Roster management is open to
// the master admin, ADMIN-role users, the team's own lead and project leads.
func (s *Service) AddTeamMember(ctx context.Context, actor *types.User, teamID, userID int64) error {
	ctx, span := s.tracer.Start(ctx, "tracker.AddTeamMember",
		trace.WithAttributes(
			attribute.Int64("team.id", teamID),
			attribute.Int64("user.id", userID)))
	defer span.End()

	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return fmt.Errorf("user %d: %w", userID, err)
	}
	if !s.eval.CanManageTeamMembers(ctx, actor, team) {
		return fmt.Errorf("%w: no permission to manage this team's members", ErrPermissionDenied)
	}
	return s.store.AddTeamMember(ctx, teamID, userID)
}

// Package tracker orchestrates issue mutations: it sequences the permission
// check, hierarchy validation, status guard, story code allocation, the
// entity write, and the audit record, with the write and its audit entry
// committing in one transaction.
//
// The package maps every outcome to one of a small set of error kinds;
// callers (the CLI, an HTTP layer) branch with errors.Is and surface the
// wrapped message.
package tracker

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/storydeck/storydeck/internal/policy"
	"github.com/storydeck/storydeck/internal/storage"
	"github.com/storydeck/storydeck/internal/telemetry"
	"github.com/storydeck/storydeck/internal/types"
)

// ErrPermissionDenied is returned when the access-control evaluator denies
// an action. Plain denials carry a generic message; create denials explain
// which view-mode rule blocked the actor.
var ErrPermissionDenied = errors.New("permission denied")

// Notifier receives downstream notification triggers. Delivery is
// fire-and-forget: a Notifier must never fail the mutation that triggered
// it.
type Notifier interface {
	Notify(ctx context.Context, userID int64, title, message string)
}

// Service wires the core components over a storage backend.
type Service struct {
	store    storage.Storage
	eval     *policy.Evaluator
	notifier Notifier
	tracer   trace.Tracer
}

// New builds a Service. notifier may be nil, in which case notification
// triggers are dropped.
func New(store storage.Storage, notifier Notifier) *Service {
	return &Service{
		store:    store,
		eval:     policy.NewEvaluator(store),
		notifier: notifier,
		tracer:   telemetry.Tracer("github.com/storydeck/storydeck/tracker"),
	}
}

// GetIssue returns an issue the actor is permitted to view.
func (s *Service) GetIssue(ctx context.Context, actor *types.User, issueID int64) (*types.Issue, error) {
	ctx, span := s.tracer.Start(ctx, "tracker.GetIssue",
		trace.WithAttributes(attribute.Int64("issue.id", issueID)))
	defer span.End()

	issue, err := s.store.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !s.eval.CanViewIssue(actor, issue) {
		return nil, ErrPermissionDenied
	}
	return issue, nil
}

// Activities returns the audit trail of an issue the actor may view.
func (s *Service) Activities(ctx context.Context, actor *types.User, issueID int64) ([]*types.Activity, error) {
	issue, err := s.store.GetIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !s.eval.CanViewIssue(actor, issue) {
		return nil, ErrPermissionDenied
	}
	return s.store.ListActivities(ctx, issueID)
}

// notify forwards a trigger to the notifier, if any. Failures are the
// notifier's problem; nothing here can roll back the mutation.
func (s *Service) notify(ctx context.Context, userID int64, title, message string) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, userID, title, message)
	}
}

// loadActiveProject fetches the issue's project and enforces the inactive
// gate shared by every mutation.
func (s *Service) loadActiveProject(ctx context.Context, projectID int64) (*types.Project, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", projectID, err)
	}
	if !project.Active {
		return nil, storage.ErrInactiveProject
	}
	return project, nil
}

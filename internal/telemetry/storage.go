package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/storydeck/storydeck/internal/storage"
	"github.com/storydeck/storydeck/internal/types"
)

const storageScopeName = "github.com/storydeck/storydeck/storage"

// InstrumentedStorage wraps storage.Storage with OTel tracing and metrics.
// Every method gets a span and is counted in sd.storage.* metrics.
// Use WrapStorage to create one; it returns the original store unchanged when
// telemetry is disabled.
type InstrumentedStorage struct {
	inner  storage.Storage
	tracer trace.Tracer
	ops    metric.Int64Counter
	dur    metric.Float64Histogram
	errs   metric.Int64Counter
}

// WrapStorage returns s decorated with OTel instrumentation.
// When telemetry is disabled, s is returned as-is with zero overhead.
func WrapStorage(s storage.Storage) storage.Storage {
	if !Enabled() {
		return s
	}
	m := Meter(storageScopeName)
	ops, _ := m.Int64Counter("sd.storage.operations",
		metric.WithDescription("Total storage operations executed"),
	)
	dur, _ := m.Float64Histogram("sd.storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	errs, _ := m.Int64Counter("sd.storage.errors",
		metric.WithDescription("Total storage operation errors"),
	)
	return &InstrumentedStorage{
		inner:  s,
		tracer: Tracer(storageScopeName),
		ops:    ops,
		dur:    dur,
		errs:   errs,
	}
}

// op starts a span and records a metric for the named storage operation.
func (s *InstrumentedStorage) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("db.operation", name)}, attrs...)
	ctx, span := s.tracer.Start(ctx, "storage."+name,
		trace.WithAttributes(all...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	s.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (s *InstrumentedStorage) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	s.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

// ── Users ───────────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) CreateUser(ctx context.Context, user *types.User) error {
	ctx, span, t := s.op(ctx, "CreateUser")
	err := s.inner.CreateUser(ctx, user)
	s.done(ctx, span, t, err)
	return err
}

func (s *InstrumentedStorage) GetUser(ctx context.Context, id int64) (*types.User, error) {
	attrs := []attribute.KeyValue{attribute.Int64("sd.user.id", id)}
	ctx, span, t := s.op(ctx, "GetUser", attrs...)
	v, err := s.inner.GetUser(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	ctx, span, t := s.op(ctx, "GetUserByEmail")
	v, err := s.inner.GetUserByEmail(ctx, email)
	s.done(ctx, span, t, err)
	return v, err
}

func (s *InstrumentedStorage) SetUserViewMode(ctx context.Context, id int64, mode types.ViewMode) error {
	attrs := []attribute.KeyValue{
		attribute.Int64("sd.user.id", id),
		attribute.String("sd.view_mode", string(mode)),
	}
	ctx, span, t := s.op(ctx, "SetUserViewMode", attrs...)
	err := s.inner.SetUserViewMode(ctx, id, mode)
	s.done(ctx, span, t, err, attrs...)
	return err
}

// ── Projects ────────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) CreateProject(ctx context.Context, project *types.Project) error {
	ctx, span, t := s.op(ctx, "CreateProject")
	err := s.inner.CreateProject(ctx, project)
	s.done(ctx, span, t, err)
	return err
}

func (s *InstrumentedStorage) GetProject(ctx context.Context, id int64) (*types.Project, error) {
	attrs := []attribute.KeyValue{attribute.Int64("sd.project.id", id)}
	ctx, span, t := s.op(ctx, "GetProject", attrs...)
	v, err := s.inner.GetProject(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) SetProjectActive(ctx context.Context, id int64, active bool) error {
	attrs := []attribute.KeyValue{
		attribute.Int64("sd.project.id", id),
		attribute.Bool("sd.project.active", active),
	}
	ctx, span, t := s.op(ctx, "SetProjectActive", attrs...)
	err := s.inner.SetProjectActive(ctx, id, active)
	s.done(ctx, span, t, err, attrs...)
	return err
}

// ── Teams ───────────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) CreateTeam(ctx context.Context, team *types.Team) error {
	ctx, span, t := s.op(ctx, "CreateTeam")
	err := s.inner.CreateTeam(ctx, team)
	s.done(ctx, span, t, err)
	return err
}

func (s *InstrumentedStorage) GetTeam(ctx context.Context, id int64) (*types.Team, error) {
	attrs := []attribute.KeyValue{attribute.Int64("sd.team.id", id)}
	ctx, span, t := s.op(ctx, "GetTeam", attrs...)
	v, err := s.inner.GetTeam(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) AddTeamMember(ctx context.Context, teamID, userID int64) error {
	attrs := []attribute.KeyValue{
		attribute.Int64("sd.team.id", teamID),
		attribute.Int64("sd.user.id", userID),
	}
	ctx, span, t := s.op(ctx, "AddTeamMember", attrs...)
	err := s.inner.AddTeamMember(ctx, teamID, userID)
	s.done(ctx, span, t, err, attrs...)
	return err
}

// ── Issues ──────────────────────────────────────────────────────────────────

func (s *InstrumentedStorage) CreateIssue(ctx context.Context, issue *types.Issue) error {
	attrs := []attribute.KeyValue{attribute.String("sd.issue.type", string(issue.IssueType))}
	ctx, span, t := s.op(ctx, "CreateIssue", attrs...)
	err := s.inner.CreateIssue(ctx, issue)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) GetIssue(ctx context.Context, id int64) (*types.Issue, error) {
	attrs := []attribute.KeyValue{attribute.Int64("sd.issue.id", id)}
	ctx, span, t := s.op(ctx, "GetIssue", attrs...)
	v, err := s.inner.GetIssue(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) GetChildren(ctx context.Context, issueID int64) ([]*types.Issue, error) {
	attrs := []attribute.KeyValue{attribute.Int64("sd.issue.id", issueID)}
	ctx, span, t := s.op(ctx, "GetChildren", attrs...)
	v, err := s.inner.GetChildren(ctx, issueID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ListIssuesByProject(ctx context.Context, projectID int64) ([]*types.Issue, error) {
	attrs := []attribute.KeyValue{attribute.Int64("sd.project.id", projectID)}
	ctx, span, t := s.op(ctx, "ListIssuesByProject", attrs...)
	v, err := s.inner.ListIssuesByProject(ctx, projectID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) ListStoryCodes(ctx context.Context, prefix string) ([]string, error) {
	attrs := []attribute.KeyValue{attribute.String("sd.code.prefix", prefix)}
	ctx, span, t := s.op(ctx, "ListStoryCodes", attrs...)
	v, err := s.inner.ListStoryCodes(ctx, prefix)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) UpdateIssue(ctx context.Context, issue *types.Issue) error {
	attrs := []attribute.KeyValue{attribute.Int64("sd.issue.id", issue.ID)}
	ctx, span, t := s.op(ctx, "UpdateIssue", attrs...)
	err := s.inner.UpdateIssue(ctx, issue)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) DeleteIssue(ctx context.Context, id int64) error {
	attrs := []attribute.KeyValue{attribute.Int64("sd.issue.id", id)}
	ctx, span, t := s.op(ctx, "DeleteIssue", attrs...)
	err := s.inner.DeleteIssue(ctx, id)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) SearchIssues(ctx context.Context, query string) ([]*types.Issue, error) {
	ctx, span, t := s.op(ctx, "SearchIssues")
	v, err := s.inner.SearchIssues(ctx, query)
	s.done(ctx, span, t, err)
	return v, err
}

// ── Activities and notifications ────────────────────────────────────────────

func (s *InstrumentedStorage) AddActivity(ctx context.Context, activity *types.Activity) error {
	attrs := []attribute.KeyValue{attribute.Int64("sd.issue.id", activity.IssueID)}
	ctx, span, t := s.op(ctx, "AddActivity", attrs...)
	err := s.inner.AddActivity(ctx, activity)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) ListActivities(ctx context.Context, issueID int64) ([]*types.Activity, error) {
	attrs := []attribute.KeyValue{attribute.Int64("sd.issue.id", issueID)}
	ctx, span, t := s.op(ctx, "ListActivities", attrs...)
	v, err := s.inner.ListActivities(ctx, issueID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

func (s *InstrumentedStorage) AddNotification(ctx context.Context, n *types.Notification) error {
	attrs := []attribute.KeyValue{attribute.Int64("sd.user.id", n.UserID)}
	ctx, span, t := s.op(ctx, "AddNotification", attrs...)
	err := s.inner.AddNotification(ctx, n)
	s.done(ctx, span, t, err, attrs...)
	return err
}

func (s *InstrumentedStorage) ListNotifications(ctx context.Context, userID int64) ([]*types.Notification, error) {
	attrs := []attribute.KeyValue{attribute.Int64("sd.user.id", userID)}
	ctx, span, t := s.op(ctx, "ListNotifications", attrs...)
	v, err := s.inner.ListNotifications(ctx, userID)
	s.done(ctx, span, t, err, attrs...)
	return v, err
}

// ── Transactions and lifecycle ──────────────────────────────────────────────

// RunInTransaction wraps the whole transaction in one span; the individual
// operations inside run against the inner transaction uninstrumented.
func (s *InstrumentedStorage) RunInTransaction(ctx context.Context, fn func(tx storage.Transaction) error) error {
	ctx, span, t := s.op(ctx, "RunInTransaction")
	err := s.inner.RunInTransaction(ctx, fn)
	s.done(ctx, span, t, err)
	return err
}

func (s *InstrumentedStorage) Close() error {
	return s.inner.Close()
}

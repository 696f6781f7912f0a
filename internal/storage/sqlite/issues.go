package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/storydeck/storydeck/internal/storage"
	"github.com/storydeck/storydeck/internal/types"
)

const issueColumns = `id, project_id, team_id, parent_id, story_code, title, description,
	issue_type, status, priority, assignee_id, assignee, reviewer,
	release_number, sprint_number, created_at, updated_at`

// CreateIssue inserts an issue and assigns its database id.
func (s *Store) CreateIssue(ctx context.Context, issue *types.Issue) error {
	return s.q.createIssue(ctx, issue)
}

// CreateIssue within a transaction; the usual path, so the story code scan
// and the insert share one atomic snapshot.
func (t *Tx) CreateIssue(ctx context.Context, issue *types.Issue) error {
	return t.q.createIssue(ctx, issue)
}

func (q queries) createIssue(ctx context.Context, issue *types.Issue) error {
	if err := issue.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = now
	}
	issue.UpdatedAt = now

	res, err := q.db.ExecContext(ctx, `
		INSERT INTO issues (
			project_id, team_id, parent_id, story_code, title, description,
			issue_type, status, priority, assignee_id, assignee, reviewer,
			release_number, sprint_number, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ProjectID, issue.TeamID, issue.ParentID, issue.StoryCode,
		issue.Title, issue.Description, issue.IssueType, issue.Status,
		issue.Priority, issue.AssigneeID, issue.Assignee, issue.Reviewer,
		issue.ReleaseNumber, issue.SprintNumber, issue.CreatedAt, issue.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert issue: %w", err)
	}
	issue.ID, err = res.LastInsertId()
	return err
}

// GetIssue loads an issue by id.
func (s *Store) GetIssue(ctx context.Context, id int64) (*types.Issue, error) {
	return s.q.getIssue(ctx, id)
}

// GetIssue on a transaction sees the transaction's snapshot, including
// uncommitted writes from the same transaction.
func (t *Tx) GetIssue(ctx context.Context, id int64) (*types.Issue, error) {
	return t.q.getIssue(ctx, id)
}

func (q queries) getIssue(ctx context.Context, id int64) (*types.Issue, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE id = ?`, id)
	issue, err := scanIssueRow(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return issue, err
}

// GetChildren returns the direct children of an issue.
func (s *Store) GetChildren(ctx context.Context, issueID int64) ([]*types.Issue, error) {
	return s.q.issuesWhere(ctx, `parent_id = ?`, issueID)
}

// GetChildren within a transaction.
func (t *Tx) GetChildren(ctx context.Context, issueID int64) ([]*types.Issue, error) {
	return t.q.issuesWhere(ctx, `parent_id = ?`, issueID)
}

// ListIssuesByProject returns every issue in a project, oldest first.
func (s *Store) ListIssuesByProject(ctx context.Context, projectID int64) ([]*types.Issue, error) {
	return s.q.issuesWhere(ctx, `project_id = ?`, projectID)
}

// ListStoryCodes returns the story codes already allocated under a prefix.
func (s *Store) ListStoryCodes(ctx context.Context, prefix string) ([]string, error) {
	return s.q.listStoryCodes(ctx, prefix)
}

// ListStoryCodes within a transaction: the allocator's scan must share the
// transaction that performs the insert, or two concurrent creations could
// compute the same next number.
func (t *Tx) ListStoryCodes(ctx context.Context, prefix string) ([]string, error) {
	return t.q.listStoryCodes(ctx, prefix)
}

func (q queries) listStoryCodes(ctx context.Context, prefix string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT story_code FROM issues WHERE story_code LIKE ?`, prefix+"-%")
	if err != nil {
		return nil, fmt.Errorf("failed to query story codes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// UpdateIssue persists the full issue row.
func (s *Store) UpdateIssue(ctx context.Context, issue *types.Issue) error {
	return s.q.updateIssue(ctx, issue)
}

// UpdateIssue within a transaction.
func (t *Tx) UpdateIssue(ctx context.Context, issue *types.Issue) error {
	return t.q.updateIssue(ctx, issue)
}

func (q queries) updateIssue(ctx context.Context, issue *types.Issue) error {
	if err := issue.Validate(); err != nil {
		return err
	}
	issue.UpdatedAt = time.Now().UTC()
	res, err := q.db.ExecContext(ctx, `
		UPDATE issues SET
			project_id = ?, team_id = ?, parent_id = ?, story_code = ?, title = ?,
			description = ?, issue_type = ?, status = ?, priority = ?,
			assignee_id = ?, assignee = ?, reviewer = ?, release_number = ?,
			sprint_number = ?, updated_at = ?
		WHERE id = ?`,
		issue.ProjectID, issue.TeamID, issue.ParentID, issue.StoryCode,
		issue.Title, issue.Description, issue.IssueType, issue.Status,
		issue.Priority, issue.AssigneeID, issue.Assignee, issue.Reviewer,
		issue.ReleaseNumber, issue.SprintNumber, issue.UpdatedAt, issue.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update issue: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteIssue removes an issue. Children are detached, not deleted: the
// parent link is cleared so they become roots of their own subtrees.
func (s *Store) DeleteIssue(ctx context.Context, id int64) error {
	return s.q.deleteIssue(ctx, id)
}

// DeleteIssue within a transaction.
func (t *Tx) DeleteIssue(ctx context.Context, id int64) error {
	return t.q.deleteIssue(ctx, id)
}

func (q queries) deleteIssue(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx,
		`UPDATE issues SET parent_id = NULL WHERE parent_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach children: %w", err)
	}
	res, err := q.db.ExecContext(ctx, `DELETE FROM issues WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete issue: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SearchIssues matches the query against title, description and story code.
func (s *Store) SearchIssues(ctx context.Context, query string) ([]*types.Issue, error) {
	pattern := "%" + query + "%"
	rows, err := s.q.db.QueryContext(ctx,
		`SELECT `+issueColumns+` FROM issues
		 WHERE title LIKE ? OR description LIKE ? OR story_code LIKE ?
		 ORDER BY id`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search issues: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanIssueRows(rows)
}

func (q queries) issuesWhere(ctx context.Context, where string, arg any) ([]*types.Issue, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+issueColumns+` FROM issues WHERE `+where+` ORDER BY id`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanIssueRows(rows)
}

func scanIssueRows(rows *sql.Rows) ([]*types.Issue, error) {
	var issues []*types.Issue
	for rows.Next() {
		issue, err := scanIssueRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

func scanIssueRow(scan func(dest ...any) error) (*types.Issue, error) {
	var i types.Issue
	var teamID, parentID, assigneeID sql.NullInt64
	err := scan(
		&i.ID, &i.ProjectID, &teamID, &parentID, &i.StoryCode, &i.Title,
		&i.Description, &i.IssueType, &i.Status, &i.Priority, &assigneeID,
		&i.Assignee, &i.Reviewer, &i.ReleaseNumber, &i.SprintNumber,
		&i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan issue: %w", err)
	}
	if teamID.Valid {
		i.TeamID = &teamID.Int64
	}
	if parentID.Valid {
		i.ParentID = &parentID.Int64
	}
	if assigneeID.Valid {
		i.AssigneeID = &assigneeID.Int64
	}
	return &i, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/storydeck/storydeck/internal/types"
)

// AddActivity appends an audit record. Records are immutable: there is no
// update or delete path for this table.
func (s *Store) AddActivity(ctx context.Context, activity *types.Activity) error {
	return s.q.addActivity(ctx, activity)
}

// AddActivity within a transaction: the audit record commits with the
// entity write it describes.
func (t *Tx) AddActivity(ctx context.Context, activity *types.Activity) error {
	return t.q.addActivity(ctx, activity)
}

func (q queries) addActivity(ctx context.Context, activity *types.Activity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO activities (issue_id, user_id, action, changes, change_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		activity.IssueID, activity.UserID, activity.Action,
		activity.Changes, activity.ChangeCount, activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	activity.ID, err = res.LastInsertId()
	return err
}

// ListActivities returns an issue's audit trail, newest first.
func (s *Store) ListActivities(ctx context.Context, issueID int64) ([]*types.Activity, error) {
	rows, err := s.q.db.QueryContext(ctx,
		`SELECT id, issue_id, user_id, action, changes, change_count, created_at
		 FROM activities WHERE issue_id = ? ORDER BY created_at DESC, id DESC`, issueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var activities []*types.Activity
	for rows.Next() {
		var a types.Activity
		var userID sql.NullInt64
		if err := rows.Scan(&a.ID, &a.IssueID, &userID, &a.Action, &a.Changes, &a.ChangeCount, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if userID.Valid {
			a.UserID = &userID.Int64
		}
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}

// AddNotification stores a notification row for later delivery/reading.
func (s *Store) AddNotification(ctx context.Context, n *types.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	read := 0
	if n.Read {
		read = 1
	}
	res, err := s.q.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, title, message, read, created_at) VALUES (?, ?, ?, ?, ?)`,
		n.UserID, n.Title, n.Message, read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	n.ID, err = res.LastInsertId()
	return err
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID int64) ([]*types.Notification, error) {
	rows, err := s.q.db.QueryContext(ctx,
		`SELECT id, user_id, title, message, read, created_at
		 FROM notifications WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Notification
	for rows.Next() {
		var n types.Notification
		var read int
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Read = read != 0
		out = append(out, &n)
	}
	return out, rows.Err()
}

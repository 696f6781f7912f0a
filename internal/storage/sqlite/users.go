package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/storydeck/storydeck/internal/storage"
	"github.com/storydeck/storydeck/internal/types"
)

// CreateUser inserts a user. Role and view mode default to DEVELOPER when
// unset, matching new-account provisioning.
func (s *Store) CreateUser(ctx context.Context, user *types.User) error {
	if user.Role == "" {
		user.Role = types.RoleDeveloper
	}
	if user.ViewMode == "" {
		user.ViewMode = types.ViewModeDeveloper
	}
	res, err := s.q.db.ExecContext(ctx,
		`INSERT INTO users (username, email, role, view_mode) VALUES (?, ?, ?, ?)`,
		user.Username, user.Email, user.Role, user.ViewMode,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	user.ID, err = res.LastInsertId()
	return err
}

// GetUser loads a user with team relationships and the master-admin
// override applied.
func (s *Store) GetUser(ctx context.Context, id int64) (*types.User, error) {
	return s.q.getUser(ctx, id)
}

// GetUserByEmail loads a user by email, same resolution rules as GetUser.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return s.q.getUserWhere(ctx, "email = ?", email)
}

// SetUserViewMode updates the stored view mode. For the reserved
// master-admin identity the stored value is irrelevant: resolution pins the
// mode to ADMIN, so the override is never persisted.
func (s *Store) SetUserViewMode(ctx context.Context, id int64, mode types.ViewMode) error {
	if !mode.IsValid() {
		return fmt.Errorf("invalid view mode: %s", mode)
	}
	res, err := s.q.db.ExecContext(ctx, `UPDATE users SET view_mode = ? WHERE id = ?`, mode, id)
	if err != nil {
		return fmt.Errorf("failed to update view mode: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetUser on a transaction sees the transaction's snapshot.
func (t *Tx) GetUser(ctx context.Context, id int64) (*types.User, error) {
	return t.q.getUser(ctx, id)
}

func (q queries) getUser(ctx context.Context, id int64) (*types.User, error) {
	return q.getUserWhere(ctx, "id = ?", id)
}

func (q queries) getUserWhere(ctx context.Context, where string, arg any) (*types.User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, username, email, role, view_mode, created_at FROM users WHERE `+where, arg)

	var u types.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.ViewMode, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if u.Teams, err = q.teamsWhere(ctx,
		`SELECT t.id, t.name, t.project_id, t.lead_id, t.created_at
		 FROM teams t JOIN team_members m ON m.team_id = t.id WHERE m.user_id = ?`, u.ID); err != nil {
		return nil, err
	}
	if u.LedTeams, err = q.teamsWhere(ctx,
		`SELECT id, name, project_id, lead_id, created_at FROM teams WHERE lead_id = ?`, u.ID); err != nil {
		return nil, err
	}

	u.ApplyMasterAdminOverride(q.masterEmail)
	return &u, nil
}

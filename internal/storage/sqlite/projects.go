package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/storydeck/storydeck/internal/storage"
	"github.com/storydeck/storydeck/internal/types"
)

// CreateProject inserts a project. New projects are active.
func (s *Store) CreateProject(ctx context.Context, project *types.Project) error {
	active := 1
	if !project.Active {
		active = 0
	}
	res, err := s.q.db.ExecContext(ctx,
		`INSERT INTO projects (name, prefix, owner_id, active) VALUES (?, ?, ?, ?)`,
		project.Name, project.Prefix, project.OwnerID, active,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	project.ID, err = res.LastInsertId()
	return err
}

// GetProject loads a project by id.
func (s *Store) GetProject(ctx context.Context, id int64) (*types.Project, error) {
	return s.q.getProject(ctx, id)
}

// GetProject on a transaction sees the transaction's snapshot.
func (t *Tx) GetProject(ctx context.Context, id int64) (*types.Project, error) {
	return t.q.getProject(ctx, id)
}

// SetProjectActive archives or reactivates a project. Mutations against
// issues of an inactive project are denied regardless of permissions.
func (s *Store) SetProjectActive(ctx context.Context, id int64, active bool) error {
	val := 0
	if active {
		val = 1
	}
	res, err := s.q.db.ExecContext(ctx, `UPDATE projects SET active = ? WHERE id = ?`, val, id)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (q queries) getProject(ctx context.Context, id int64) (*types.Project, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, name, prefix, owner_id, active, created_at FROM projects WHERE id = ?`, id)
	var p types.Project
	var active int
	err := row.Scan(&p.ID, &p.Name, &p.Prefix, &p.OwnerID, &active, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	p.Active = active != 0
	return &p, nil
}

// CreateTeam inserts a team. The team's project scope is fixed here and
// never updated afterwards.
func (s *Store) CreateTeam(ctx context.Context, team *types.Team) error {
	res, err := s.q.db.ExecContext(ctx,
		`INSERT INTO teams (name, project_id, lead_id) VALUES (?, ?, ?)`,
		team.Name, team.ProjectID, team.LeadID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", err)
	}
	if team.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	for _, memberID := range team.MemberIDs {
		if err := s.q.addTeamMember(ctx, team.ID, memberID); err != nil {
			return err
		}
	}
	return nil
}

// GetTeam loads a team with its member roster.
func (s *Store) GetTeam(ctx context.Context, id int64) (*types.Team, error) {
	return s.q.getTeam(ctx, id)
}

// GetTeam on a transaction sees the transaction's snapshot.
func (t *Tx) GetTeam(ctx context.Context, id int64) (*types.Team, error) {
	return t.q.getTeam(ctx, id)
}

// AddTeamMember adds a user to a team roster; adding an existing member is
// a no-op.
func (s *Store) AddTeamMember(ctx context.Context, teamID, userID int64) error {
	return s.q.addTeamMember(ctx, teamID, userID)
}

// AddTeamMember within a transaction.
func (t *Tx) AddTeamMember(ctx context.Context, teamID, userID int64) error {
	return t.q.addTeamMember(ctx, teamID, userID)
}

func (q queries) addTeamMember(ctx context.Context, teamID, userID int64) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO team_members (team_id, user_id) VALUES (?, ?)`, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

func (q queries) getTeam(ctx context.Context, id int64) (*types.Team, error) {
	teams, err := q.teamsWhere(ctx,
		`SELECT id, name, project_id, lead_id, created_at FROM teams WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, storage.ErrNotFound
	}
	return teams[0], nil
}

// teamsWhere runs a team query and loads each team's member roster.
func (q queries) teamsWhere(ctx context.Context, query string, arg any) ([]*types.Team, error) {
	rows, err := q.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var teams []*types.Team
	for rows.Next() {
		var t types.Team
		var lead sql.NullInt64
		if err := rows.Scan(&t.ID, &t.Name, &t.ProjectID, &lead, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		if lead.Valid {
			t.LeadID = &lead.Int64
		}
		teams = append(teams, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range teams {
		members, err := q.db.QueryContext(ctx,
			`SELECT user_id FROM team_members WHERE team_id = ?`, t.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query team members: %w", err)
		}
		for members.Next() {
			var id int64
			if err := members.Scan(&id); err != nil {
				_ = members.Close()
				return nil, err
			}
			t.MemberIDs = append(t.MemberIDs, id)
		}
		if err := members.Err(); err != nil {
			_ = members.Close()
			return nil, err
		}
		_ = members.Close()
	}
	return teams, nil
}

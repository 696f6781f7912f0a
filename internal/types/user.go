package types

import "time"

// Role is a user's global role.
type Role string

// Global role constants. MasterAdmin is never stored; it is computed from
// the configured master-admin email at resolution time.
const (
	RoleAdmin       Role = "ADMIN"
	RoleDeveloper   Role = "DEVELOPER"
	RoleTester      Role = "TESTER"
	RoleOwner       Role = "OWNER"
	RoleMasterAdmin Role = "MASTER_ADMIN"
)

// IsValid checks if the role is an assignable role.
// MasterAdmin is excluded: it cannot be granted by role change.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDeveloper, RoleTester, RoleOwner:
		return true
	}
	return false
}

// ViewMode is a per-user toggle independent of role. It changes which issues
// a user may act on even without changing their role.
type ViewMode string

// View mode constants
const (
	ViewModeAdmin     ViewMode = "ADMIN"
	ViewModeDeveloper ViewMode = "DEVELOPER"
)

// IsValid checks if the view mode is valid.
func (m ViewMode) IsValid() bool {
	return m == ViewModeAdmin || m == ViewModeDeveloper
}

// User is a resolved actor identity, including the team relationships the
// policy evaluator traverses. Role and ViewMode are the effective values:
// the storage layer applies the master-admin override before handing a User
// to anything else, so consumers never re-derive it.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ViewMode  ViewMode  `json:"view_mode"`
	Teams     []*Team   `json:"teams,omitempty"`     // teams the user belongs to
	LedTeams  []*Team   `json:"led_teams,omitempty"` // teams the user leads
	CreatedAt time.Time `json:"created_at"`
}

// IsMasterAdmin reports whether the effective role is the reserved
// super-user identity.
func (u *User) IsMasterAdmin() bool {
	return u.Role == RoleMasterAdmin
}

// ApplyMasterAdminOverride pins the reserved identity's role and view mode.
// masterEmail comes from configuration; when it matches, the stored role and
// view mode are ignored rather than rewritten in the database.
func (u *User) ApplyMasterAdminOverride(masterEmail string) {
	if masterEmail != "" && u.Email == masterEmail {
		u.Role = RoleMasterAdmin
		u.ViewMode = ViewModeAdmin
	}
}

// LeadsTeam reports whether the user leads the team with the given id.
func (u *User) LeadsTeam(teamID int64) bool {
	for _, t := range u.LedTeams {
		if t.ID == teamID {
			return true
		}
	}
	return false
}

// LeadsTeamInProject reports whether the user leads at least one team
// belonging to the given project.
func (u *User) LeadsTeamInProject(projectID int64) bool {
	for _, t := range u.LedTeams {
		if t.ProjectID == projectID {
			return true
		}
	}
	return false
}

// MemberOfTeamInProject reports whether the user belongs to (or leads) any
// team in the given project.
func (u *User) MemberOfTeamInProject(projectID int64) bool {
	if u.LeadsTeamInProject(projectID) {
		return true
	}
	for _, t := range u.Teams {
		if t.ProjectID == projectID {
			return true
		}
	}
	return false
}

// Project is an aggregate root owning issues and teams.
type Project struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Prefix    string    `json:"prefix,omitempty"` // story code prefix; derived from Name when empty
	OwnerID   int64     `json:"owner_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Team belongs to exactly one project; the project scope is fixed at creation.
type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ProjectID int64     `json:"project_id"`
	LeadID    *int64    `json:"lead_id,omitempty"`
	MemberIDs []int64   `json:"member_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasMember reports whether the given user id is on the team roster.
func (t *Team) HasMember(userID int64) bool {
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

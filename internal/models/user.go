package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleViewer     UserRole = "viewer"
	RoleUnitLeader UserRole = "unit_leader"
)

// Valid reports whether the role is a known value.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleViewer, RoleUnitLeader:
		return true
	default:
		return false
	}
}

// Permission names gate individual dashboard surfaces.
const (
	PermViewDashboard   = "view_dashboard"
	PermViewFinance     = "view_finance"
	PermTakeAttendance  = "take_attendance"
	PermEditGroups      = "edit_groups"
	PermManageTrips     = "manage_trips"
	PermManageSettings  = "manage_settings"
	PermManageUsers     = "manage_users"
	PermExportReports   = "export_reports"
	PermViewAttendance  = "view_attendance"
	PermSyncEnrollment  = "sync_enrollment"
)

// AllPermissions enumerates every grantable permission.
var AllPermissions = []string{
	PermViewDashboard,
	PermViewFinance,
	PermTakeAttendance,
	PermEditGroups,
	PermManageTrips,
	PermManageSettings,
	PermManageUsers,
	PermExportReports,
	PermViewAttendance,
	PermSyncEnrollment,
}

// RoleDefaultPermissions maps each role to its starting permission set.
var RoleDefaultPermissions = map[UserRole][]string{
	RoleAdmin: AllPermissions,
	RoleViewer: {
		PermViewDashboard,
		PermViewAttendance,
	},
	RoleUnitLeader: {
		PermViewDashboard,
		PermTakeAttendance,
		PermEditGroups,
		PermViewAttendance,
	},
}

// UserAccount is an operator login. Permissions is stored as a JSON array.
type UserAccount struct {
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	Permissions  string    `db:"permissions" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

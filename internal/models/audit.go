package models

import "time"

// Audit action names, stored verbatim in the audit_logs table.
const (
	AuditActionUserCreate     = "USER_CREATE"
	AuditActionUserUpdate     = "USER_UPDATE"
	AuditActionUserDelete     = "USER_DELETE"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionSettingsChange = "SETTINGS_CHANGE"
	AuditActionBACSync        = "BAC_SYNC"
)

// AuditLog is one audit trail row. Username is nullable: attendance sync
// jobs act without an operator.
type AuditLog struct {
	ID        int64     `db:"id" json:"id"`
	Username  *string   `db:"username" json:"username,omitempty"`
	Action    string    `db:"action" json:"action"`
	Resource  string    `db:"resource" json:"resource"`
	Detail    []byte    `db:"detail" json:"detail,omitempty"`
	IPAddress string    `db:"ip_address" json:"ip_address"`
	UserAgent string    `db:"user_agent" json:"user_agent"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

package models

// ProgramSetting holds the operator-configurable parameters for a program.
// WeeksActive is stored as a comma-separated list in the database.
type ProgramSetting struct {
	ProgramName  string `db:"program_name" json:"program_name"`
	Goal         float64 `db:"goal" json:"goal"`
	WeeksOffered int    `db:"weeks_offered" json:"weeks_offered"`
	WeeksActive  string `db:"weeks_active" json:"weeks_active"`
	Active       bool   `db:"active" json:"active"`
}

// GlobalSetting is a simple key/value configuration row.
type GlobalSetting struct {
	Key   string `db:"key" json:"key"`
	Value string `db:"value" json:"value"`
}

// UnitLeaderAssignment scopes an operator account to one program.
// Unique per (username, program_name).
type UnitLeaderAssignment struct {
	ID          int64  `db:"id" json:"id"`
	Username    string `db:"username" json:"username"`
	ProgramName string `db:"program_name" json:"program_name"`
}

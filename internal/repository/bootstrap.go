package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/camp-ops/dashboard-api/internal/models"
)

// schema creates every table the service reads or writes. Statements are
// idempotent so bootstrap can run on every start.
const schema = `
CREATE TABLE IF NOT EXISTS user_accounts (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	permissions   TEXT NOT NULL DEFAULT '[]',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS audit_logs (
	id         BIGSERIAL PRIMARY KEY,
	username   TEXT,
	action     TEXT NOT NULL,
	resource   TEXT NOT NULL,
	detail     JSONB,
	ip_address TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS attendance_checkpoints (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	sort_order INT NOT NULL,
	time_label TEXT NOT NULL DEFAULT '',
	active     BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS attendance_records (
	id            BIGSERIAL PRIMARY KEY,
	person_id     BIGINT NOT NULL,
	program_name  TEXT NOT NULL,
	week          INT NOT NULL,
	date          DATE NOT NULL,
	checkpoint_id BIGINT NOT NULL REFERENCES attendance_checkpoints (id),
	status        TEXT NOT NULL,
	recorded_by   TEXT NOT NULL DEFAULT '',
	recorded_at   TIMESTAMPTZ NOT NULL,
	notes         TEXT,
	UNIQUE (person_id, program_name, date, checkpoint_id)
);
CREATE INDEX IF NOT EXISTS idx_attendance_records_date
	ON attendance_records (date);
CREATE INDEX IF NOT EXISTS idx_attendance_records_program_date
	ON attendance_records (program_name, date);

CREATE TABLE IF NOT EXISTS group_assignments (
	id           BIGSERIAL PRIMARY KEY,
	program_name TEXT NOT NULL,
	week         INT NOT NULL,
	person_id    BIGINT NOT NULL,
	group_number INT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	UNIQUE (program_name, week, person_id)
);

CREATE TABLE IF NOT EXISTS program_settings (
	program_name  TEXT PRIMARY KEY,
	goal          DOUBLE PRECISION NOT NULL DEFAULT 0,
	weeks_offered INT NOT NULL DEFAULT 9,
	weeks_active  TEXT NOT NULL DEFAULT '',
	active        BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS global_settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS unit_leader_assignments (
	id           BIGSERIAL PRIMARY KEY,
	username     TEXT NOT NULL REFERENCES user_accounts (username) ON DELETE CASCADE,
	program_name TEXT NOT NULL,
	UNIQUE (username, program_name)
);

CREATE TABLE IF NOT EXISTS field_trip_venues (
	id      BIGSERIAL PRIMARY KEY,
	name    TEXT NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	notes   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS field_trip_assignments (
	id         BIGSERIAL PRIMARY KEY,
	group_name TEXT NOT NULL,
	week       INT NOT NULL,
	venue_id   BIGINT REFERENCES field_trip_venues (id) ON DELETE SET NULL,
	trip_date  DATE,
	confirmed  BOOLEAN NOT NULL DEFAULT FALSE,
	comments   TEXT NOT NULL DEFAULT '',
	buses      INT NOT NULL DEFAULT 0,
	UNIQUE (group_name, week)
);
`

// defaultCheckpoints are the collection points a fresh season starts with.
// Inserts are keyed by name, so rows added after an upgrade slot in
// without disturbing an already-seeded table.
var defaultCheckpoints = []models.AttendanceCheckpoint{
	{Name: "Morning", SortOrder: 1, TimeLabel: "9:00 AM"},
	{Name: "After Lunch", SortOrder: 2, TimeLabel: "1:00 PM"},
	{Name: "Departure", SortOrder: 3, TimeLabel: "3:30 PM"},
	{Name: "KC Before", SortOrder: 4, TimeLabel: "7:30 AM"},
	{Name: "KC After", SortOrder: 5, TimeLabel: "4:00 PM"},
	{Name: "Early Pickup", SortOrder: 6, TimeLabel: ""},
}

// BootstrapParams carries the seed data applied to an empty database.
type BootstrapParams struct {
	AdminUsername   string
	AdminPassword   string
	ProgramSettings []models.ProgramSetting
	GlobalSettings  map[string]string
}

// Bootstrap prepares the database on startup: schema, checkpoint rows,
// season defaults and a first admin login when no account exists yet.
type Bootstrap struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewBootstrap constructs a Bootstrap.
func NewBootstrap(db *sqlx.DB, logger *zap.Logger) *Bootstrap {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bootstrap{db: db, logger: logger}
}

// Run applies the schema and seeds. Safe to call on every start; existing
// rows are never overwritten.
func (b *Bootstrap) Run(ctx context.Context, params BootstrapParams) error {
	if _, err := b.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if err := b.seedCheckpoints(ctx); err != nil {
		return err
	}
	if err := b.seedAdmin(ctx, params.AdminUsername, params.AdminPassword); err != nil {
		return err
	}
	if err := b.seedGlobalSettings(ctx, params.GlobalSettings); err != nil {
		return err
	}
	return b.seedProgramSettings(ctx, params.ProgramSettings)
}

func (b *Bootstrap) seedCheckpoints(ctx context.Context) error {
	const query = `INSERT INTO attendance_checkpoints (name, sort_order, time_label, active)
		SELECT $1, $2, $3, TRUE
		WHERE NOT EXISTS (SELECT 1 FROM attendance_checkpoints WHERE name = $1)`
	for _, cp := range defaultCheckpoints {
		if _, err := b.db.ExecContext(ctx, query, cp.Name, cp.SortOrder, cp.TimeLabel); err != nil {
			return fmt.Errorf("seed checkpoint %q: %w", cp.Name, err)
		}
	}
	return nil
}

// seedAdmin creates the first admin account when the user table is empty,
// so a fresh install has a working login.
func (b *Bootstrap) seedAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	var count int
	if err := b.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM user_accounts`); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	perms, err := json.Marshal(models.RoleDefaultPermissions[models.RoleAdmin])
	if err != nil {
		return fmt.Errorf("marshal admin permissions: %w", err)
	}

	now := time.Now().UTC()
	const query = `INSERT INTO user_accounts (username, password_hash, role, permissions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)`
	if _, err := b.db.ExecContext(ctx, query, username, string(hash), string(models.RoleAdmin), string(perms), now); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	b.logger.Warn("seeded initial admin account, change its password after first login",
		zap.String("username", username))
	return nil
}

func (b *Bootstrap) seedGlobalSettings(ctx context.Context, defaults map[string]string) error {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	const query = `INSERT INTO global_settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO NOTHING`
	for _, k := range keys {
		if _, err := b.db.ExecContext(ctx, query, k, defaults[k]); err != nil {
			return fmt.Errorf("seed global setting %q: %w", k, err)
		}
	}
	return nil
}

// seedProgramSettings fills the table from the season defaults only when
// it is completely empty, so operator edits always win.
func (b *Bootstrap) seedProgramSettings(ctx context.Context, settings []models.ProgramSetting) error {
	if len(settings) == 0 {
		return nil
	}
	var count int
	if err := b.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM program_settings`); err != nil {
		return fmt.Errorf("count program settings: %w", err)
	}
	if count > 0 {
		return nil
	}

	const query = `INSERT INTO program_settings (program_name, goal, weeks_offered, weeks_active, active)
		VALUES (:program_name, :goal, :weeks_offered, :weeks_active, :active)`
	for i := range settings {
		if _, err := b.db.NamedExecContext(ctx, query, &settings[i]); err != nil {
			return fmt.Errorf("seed program setting %q: %w", settings[i].ProgramName, err)
		}
	}
	return nil
}

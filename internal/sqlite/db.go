package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection.
//
// The pool is pinned to a single connection: SQLite has a single writer
// anyway, and one connection keeps :memory: databases coherent across
// goroutines in tests.
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations applies the schema.
func (db *DB) RunMigrations() error {
	migration := `
-- Organizations: tenant-level interview capacity accounting
CREATE TABLE IF NOT EXISTS organizations (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    quota_limit INTEGER NOT NULL DEFAULT 0 CHECK(quota_limit >= 0),
    quota_used INTEGER NOT NULL DEFAULT 0 CHECK(quota_used >= 0),
    student_credits_used INTEGER NOT NULL DEFAULT 0 CHECK(student_credits_used >= 0),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    CHECK(quota_limit = 0 OR quota_used <= quota_limit)
);
CREATE INDEX IF NOT EXISTS idx_tenant_orgs ON organizations(tenant_id);

-- Students: per-student credit allocations
CREATE TABLE IF NOT EXISTS students (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    org_id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    credits_allocated INTEGER NOT NULL DEFAULT 0 CHECK(credits_allocated >= 0),
    credits_used INTEGER NOT NULL DEFAULT 0 CHECK(credits_used >= 0 AND credits_used <= credits_allocated),
    can_self_start INTEGER NOT NULL DEFAULT 1,
    dashboard_enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (org_id) REFERENCES organizations(id)
);
CREATE INDEX IF NOT EXISTS idx_tenant_students ON students(tenant_id);
CREATE INDEX IF NOT EXISTS idx_org_students ON students(org_id);

-- Interviews: created only by a committed reservation, never deleted
CREATE TABLE IF NOT EXISTS interviews (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    org_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    status TEXT NOT NULL CHECK(status IN ('scheduled', 'in_progress', 'completed', 'failed')),
    credit_source TEXT NOT NULL CHECK(credit_source IN ('org', 'student')),
    route TEXT NOT NULL DEFAULT '',
    score REAL,
    final_score REAL,
    score_details TEXT,
    final_report TEXT,
    failure_reason TEXT,
    start_time TIMESTAMP,
    end_time TIMESTAMP,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (org_id) REFERENCES organizations(id),
    FOREIGN KEY (user_id) REFERENCES students(id)
);
CREATE INDEX IF NOT EXISTS idx_tenant_interviews ON interviews(tenant_id);
CREATE INDEX IF NOT EXISTS idx_user_interviews ON interviews(user_id);
CREATE INDEX IF NOT EXISTS idx_interview_status ON interviews(status);

-- Credit history: append-only audit ledger
CREATE TABLE IF NOT EXISTS credit_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    tenant_id TEXT NOT NULL,
    org_id TEXT NOT NULL,
    student_id TEXT,
    type TEXT NOT NULL CHECK(type IN ('used', 'restored')),
    amount INTEGER NOT NULL CHECK(amount > 0),
    reason TEXT NOT NULL,
    interview_id TEXT NOT NULL,
    balance_before INTEGER NOT NULL,
    balance_after INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (org_id) REFERENCES organizations(id),
    FOREIGN KEY (student_id) REFERENCES students(id),
    FOREIGN KEY (interview_id) REFERENCES interviews(id)
);
CREATE INDEX IF NOT EXISTS idx_tenant_history ON credit_history(tenant_id);
CREATE INDEX IF NOT EXISTS idx_student_history ON credit_history(student_id);
CREATE INDEX IF NOT EXISTS idx_interview_history ON credit_history(interview_id);

-- API keys for tenant resolution
CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_used TIMESTAMP,
    description TEXT
);
CREATE INDEX IF NOT EXISTS idx_tenant_keys ON api_keys(tenant_id);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// Migration represents a single schema migration.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations are applied in order inside a transaction each, and recorded in
// schema_migrations so restarts are idempotent.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_groups_and_students",
		SQL: `
CREATE TABLE IF NOT EXISTS groups (
    name             VARCHAR(255) PRIMARY KEY,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    stats_enabled_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS group_students (
    group_name        VARCHAR(255) NOT NULL REFERENCES groups(name) ON DELETE CASCADE,
    roll_number       BIGINT NOT NULL,
    name              VARCHAR(255) NOT NULL,
    github_username   VARCHAR(255),
    leetcode_username VARCHAR(255),
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (group_name, roll_number)
);

CREATE INDEX IF NOT EXISTS idx_group_students_group ON group_students(group_name);
`,
	},
	{
		Version: 2,
		Name:    "create_stats_and_notifications",
		SQL: `
CREATE TABLE IF NOT EXISTS group_stats (
    group_name                VARCHAR(255) NOT NULL,
    roll_number               BIGINT NOT NULL,
    git_followers             INTEGER,
    git_following             INTEGER,
    git_public_repo           INTEGER,
    git_original_repo         INTEGER,
    git_authored_repo         INTEGER,
    last_commit_date          VARCHAR(64),
    git_badges                VARCHAR(1024),
    lc_total_solved           INTEGER,
    lc_easy                   INTEGER,
    lc_medium                 INTEGER,
    lc_hard                   INTEGER,
    lc_ranking                BIGINT,
    lc_lastsubmission         VARCHAR(64),
    lc_lastacceptedsubmission VARCHAR(64),
    lc_cur_streak             INTEGER,
    lc_max_streak             INTEGER,
    lc_badges                 VARCHAR(1024),
    lc_language               VARCHAR(1024),
    gh_contribution_history   JSONB,
    lc_submission_history     JSONB,
    lc_progress_history       JSONB,
    last_fetched              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (group_name, roll_number),
    FOREIGN KEY (group_name, roll_number)
        REFERENCES group_students(group_name, roll_number) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_group_stats_fetched ON group_stats(group_name, last_fetched DESC);

CREATE TABLE IF NOT EXISTS group_notifications (
    group_name  VARCHAR(255) NOT NULL REFERENCES groups(name) ON DELETE CASCADE,
    roll_number BIGINT NOT NULL,
    name        VARCHAR(255) NOT NULL DEFAULT '',
    reason      VARCHAR(1024) NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (group_name, roll_number)
);
`,
	},
}

// Migrator applies pending schema migrations.
type Migrator struct {
	conn   *Connection
	logger *slog.Logger
}

// NewMigrator creates a new migrator.
func NewMigrator(conn *Connection, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{conn: conn, logger: logger}
}

// Migrate applies all pending migrations in version order.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.ensureVersionTable(ctx); err != nil {
		return err
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}
		start := time.Now()
		if err := m.apply(ctx, mig); err != nil {
			return fmt.Errorf("%w: version %d (%s): %v", ErrMigrationFailed, mig.Version, mig.Name, err)
		}
		m.logger.Info("applied migration",
			slog.Int("version", mig.Version),
			slog.String("name", mig.Name),
			slog.Duration("took", time.Since(start)),
		)
	}
	return nil
}

func (m *Migrator) ensureVersionTable(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER PRIMARY KEY,
    name       VARCHAR(255) NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`)
	if err != nil {
		return fmt.Errorf("%w: create schema_migrations: %v", ErrMigrationFailed, err)
	}
	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := m.conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("%w: read applied versions: %v", ErrMigrationFailed, err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: scan version: %v", ErrMigrationFailed, err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	return m.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, mig.SQL); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			mig.Version, mig.Name)
		return err
	})
}

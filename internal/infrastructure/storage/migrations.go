package storage

import (
	"database/sql"
	"fmt"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up:      migration001InitialSchema,
	},
	{
		Version: 2,
		Name:    "add_reconciliation_matches_table",
		Up:      migration002AddReconciliationMatchesTable,
	},
	{
		Version: 3,
		Name:    "add_statement_indexes",
		Up:      migration003AddStatementIndexes,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue // Already applied
		}

		s.logger.Info("running migration", "version", migration.Version, "name", migration.Name)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		_, err = tx.Exec(`
			INSERT INTO schema_migrations (version, name) VALUES (?, ?)
		`, migration.Version, migration.Name)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	_, err := s.db.Exec(query)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

// ================================================================
// MIGRATION FUNCTIONS
// ================================================================

// migration001InitialSchema creates the ledger transactions and bank
// statement tables. All monetary columns are integer cents.
func migration001InitialSchema(tx *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			date TIMESTAMP NOT NULL,
			description TEXT NOT NULL,
			amount_cents INTEGER NOT NULL,
			is_deleted BOOLEAN NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS bank_statements (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			bank_name TEXT NOT NULL DEFAULT '',
			account_number TEXT NOT NULL DEFAULT '',
			transaction_date TIMESTAMP NOT NULL,
			description TEXT NOT NULL,
			amount_cents INTEGER NOT NULL,
			balance_cents INTEGER,
			reference_number TEXT NOT NULL DEFAULT '',
			transaction_type TEXT NOT NULL,
			import_batch_id TEXT NOT NULL,
			reconciliation_status TEXT NOT NULL DEFAULT 'unmatched',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_transactions_owner
		 ON transactions(owner_id, is_deleted)`,
	}

	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// migration002AddReconciliationMatchesTable creates the matches table.
// The unique pair constraint is what makes upload replays idempotent.
func migration002AddReconciliationMatchesTable(tx *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS reconciliation_matches (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			statement_line_id TEXT NOT NULL REFERENCES bank_statements(id),
			transaction_id TEXT NOT NULL REFERENCES transactions(id),
			match_type TEXT NOT NULL,
			match_confidence REAL NOT NULL,
			match_criteria TEXT NOT NULL DEFAULT '{}',
			amount_diff_cents INTEGER NOT NULL DEFAULT 0,
			date_diff_days INTEGER NOT NULL DEFAULT 0,
			description_similarity REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			notes TEXT NOT NULL DEFAULT '',
			verified_by TEXT NOT NULL DEFAULT '',
			verified_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(statement_line_id, transaction_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_matches_owner_status
		 ON reconciliation_matches(owner_id, status)`,

		`CREATE INDEX IF NOT EXISTS idx_matches_transaction
		 ON reconciliation_matches(transaction_id)`,
	}

	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// migration003AddStatementIndexes adds indexes for the listing filters.
func migration003AddStatementIndexes(tx *sql.Tx) error {
	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_statements_owner_status
		 ON bank_statements(owner_id, reconciliation_status)`,

		`CREATE INDEX IF NOT EXISTS idx_statements_batch
		 ON bank_statements(import_batch_id)`,

		`CREATE INDEX IF NOT EXISTS idx_statements_date
		 ON bank_statements(transaction_date)`,
	}

	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

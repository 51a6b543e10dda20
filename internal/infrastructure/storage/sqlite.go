package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/contaflow/reconcile-api/internal/domain/matcher"
	"github.com/contaflow/reconcile-api/internal/domain/statement"
)

// Storage provides SQLite database access for reconciliation data.
// It implements the Repository interface.
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db, logger: logger}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// InsertStatements bulk-inserts one import batch inside a transaction so a
// failed batch leaves nothing behind.
func (s *Storage) InsertStatements(lines []*StatementLine) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	query := `
	INSERT INTO bank_statements
	(id, owner_id, bank_name, account_number, transaction_date, description,
	 amount_cents, balance_cents, reference_number, transaction_type,
	 import_batch_id, reconciliation_status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	for _, line := range lines {
		var balance sql.NullInt64
		if line.BalanceCents != nil {
			balance = sql.NullInt64{Int64: *line.BalanceCents, Valid: true}
		}

		_, err := tx.Exec(query,
			line.ID,
			line.OwnerID,
			line.BankName,
			line.AccountNumber,
			line.TransactionDate,
			line.Description,
			line.AmountCents,
			balance,
			line.ReferenceNumber,
			string(line.TransactionType),
			line.ImportBatchID,
			line.ReconciliationStatus,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert statement line %s: %w", line.ID, err)
		}
	}

	return tx.Commit()
}

const statementColumns = `
	id, owner_id, bank_name, account_number, transaction_date, description,
	amount_cents, balance_cents, reference_number, transaction_type,
	import_batch_id, reconciliation_status, created_at`

// ListStatements returns statement lines matching the filters with
// pagination and a total count.
func (s *Storage) ListStatements(filters StatementFilters) (*StatementListResult, error) {
	where := "WHERE owner_id = ?"
	args := []interface{}{filters.OwnerID}

	if filters.Status != "" {
		where += " AND reconciliation_status = ?"
		args = append(args, filters.Status)
	}
	if filters.Bank != "" {
		where += " AND bank_name = ?"
		args = append(args, filters.Bank)
	}
	if !filters.StartDate.IsZero() {
		where += " AND transaction_date >= ?"
		args = append(args, filters.StartDate)
	}
	if !filters.EndDate.IsZero() {
		where += " AND transaction_date <= ?"
		args = append(args, filters.EndDate)
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM bank_statements "+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT " + statementColumns + " FROM bank_statements " + where +
		" ORDER BY transaction_date DESC, created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filters.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var statements []*StatementLine
	for rows.Next() {
		line, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		statements = append(statements, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &StatementListResult{
		Statements: statements,
		TotalCount: total,
		Limit:      limit,
		Offset:     filters.Offset,
	}, nil
}

// UnmatchedStatements returns unmatched lines for an owner, optionally
// scoped to a single statement line.
func (s *Storage) UnmatchedStatements(ownerID, statementID string) ([]*StatementLine, error) {
	query := "SELECT " + statementColumns + ` FROM bank_statements
		WHERE owner_id = ? AND reconciliation_status = ?`
	args := []interface{}{ownerID, StatementUnmatched}

	if statementID != "" {
		query += " AND id = ?"
		args = append(args, statementID)
	}
	query += " ORDER BY transaction_date ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var statements []*StatementLine
	for rows.Next() {
		line, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		statements = append(statements, line)
	}
	return statements, rows.Err()
}

// scanStatement reads one statement row.
func scanStatement(rows *sql.Rows) (*StatementLine, error) {
	line := &StatementLine{}
	var balance sql.NullInt64
	var txType string
	err := rows.Scan(
		&line.ID,
		&line.OwnerID,
		&line.BankName,
		&line.AccountNumber,
		&line.TransactionDate,
		&line.Description,
		&line.AmountCents,
		&balance,
		&line.ReferenceNumber,
		&txType,
		&line.ImportBatchID,
		&line.ReconciliationStatus,
		&line.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if balance.Valid {
		line.BalanceCents = &balance.Int64
	}
	line.TransactionType = statement.TransactionType(txType)
	return line, nil
}

// MarkStatementMatched flips a line's reconciliation status to matched.
func (s *Storage) MarkStatementMatched(id string) error {
	result, err := s.db.Exec(
		`UPDATE bank_statements SET reconciliation_status = ? WHERE id = ?`,
		StatementMatched, id,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// DeleteStatement deletes a statement line, cascading to its matches
// first so the foreign keys stay satisfied.
func (s *Storage) DeleteStatement(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM reconciliation_matches WHERE statement_line_id = ?`, id); err != nil {
		_ = tx.Rollback()
		return err
	}

	result, err := tx.Exec(`DELETE FROM bank_statements WHERE id = ?`, id)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := requireRow(result); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// InsertTransaction stores a ledger transaction.
func (s *Storage) InsertTransaction(t *LedgerTransaction) error {
	_, err := s.db.Exec(`
		INSERT INTO transactions (id, owner_id, date, description, amount_cents, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Date, t.Description, t.AmountCents, t.IsDeleted,
	)
	return err
}

// UnmatchedTransactions returns candidate transactions: not soft-deleted
// and without any match in a terminal status.
func (s *Storage) UnmatchedTransactions(ownerID string) ([]*LedgerTransaction, error) {
	query := `
	SELECT t.id, t.owner_id, t.date, t.description, t.amount_cents, t.is_deleted, t.created_at
	FROM transactions t
	WHERE t.owner_id = ? AND t.is_deleted = 0
	  AND NOT EXISTS (
		SELECT 1 FROM reconciliation_matches m
		WHERE m.transaction_id = t.id AND m.status IN (?, ?)
	  )
	ORDER BY t.date ASC
	`

	rows, err := s.db.Query(query, ownerID, string(matcher.StatusVerified), string(matcher.StatusReviewed))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var transactions []*LedgerTransaction
	for rows.Next() {
		t := &LedgerTransaction{}
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Date, &t.Description, &t.AmountCents, &t.IsDeleted, &t.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// SoftDeleteTransaction marks a transaction deleted.
func (s *Storage) SoftDeleteTransaction(id string) error {
	result, err := s.db.Exec(`UPDATE transactions SET is_deleted = 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// InsertMatch stores a match. INSERT OR IGNORE lets the unique
// (statement_line_id, transaction_id) constraint absorb replays: a
// collision reports (false, nil) instead of failing the batch.
func (s *Storage) InsertMatch(m *ReconciliationMatch) (bool, error) {
	var verifiedAt interface{}
	if m.VerifiedAt != nil {
		verifiedAt = *m.VerifiedAt
	}

	result, err := s.db.Exec(`
		INSERT OR IGNORE INTO reconciliation_matches
		(id, owner_id, statement_line_id, transaction_id, match_type,
		 match_confidence, match_criteria, amount_diff_cents, date_diff_days,
		 description_similarity, status, notes, verified_by, verified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID,
		m.OwnerID,
		m.StatementLineID,
		m.TransactionID,
		string(m.MatchType),
		m.Confidence,
		criteriaJSON(m.Criteria),
		m.AmountDiffCents,
		m.DateDiffDays,
		m.DescriptionSimilarity,
		string(m.Status),
		m.Notes,
		m.VerifiedBy,
		verifiedAt,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		s.logger.Debug("duplicate match skipped",
			"statement_line_id", m.StatementLineID,
			"transaction_id", m.TransactionID)
		return false, nil
	}
	return true, nil
}

const matchColumns = `
	id, owner_id, statement_line_id, transaction_id, match_type,
	match_confidence, match_criteria, amount_diff_cents, date_diff_days,
	description_similarity, status, notes, verified_by, verified_at, created_at`

// GetMatch retrieves a match by id.
func (s *Storage) GetMatch(id string) (*ReconciliationMatch, error) {
	row := s.db.QueryRow("SELECT "+matchColumns+" FROM reconciliation_matches WHERE id = ?", id)

	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

// ListMatches returns matches for review, newest first.
func (s *Storage) ListMatches(filters MatchFilters) ([]*ReconciliationMatch, error) {
	query := "SELECT " + matchColumns + " FROM reconciliation_matches WHERE owner_id = ?"
	args := []interface{}{filters.OwnerID}

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC, match_confidence DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filters.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var matches []*ReconciliationMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanMatch reads one match row.
func scanMatch(row rowScanner) (*ReconciliationMatch, error) {
	m := &ReconciliationMatch{}
	var matchType, status, criteria string
	var verifiedBy sql.NullString
	var verifiedAt sql.NullTime

	err := row.Scan(
		&m.ID,
		&m.OwnerID,
		&m.StatementLineID,
		&m.TransactionID,
		&matchType,
		&m.Confidence,
		&criteria,
		&m.AmountDiffCents,
		&m.DateDiffDays,
		&m.DescriptionSimilarity,
		&status,
		&m.Notes,
		&verifiedBy,
		&verifiedAt,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.MatchType = matcher.MatchType(matchType)
	m.Status = matcher.Status(status)
	m.Criteria = parseCriteria(criteria)
	if verifiedBy.Valid {
		m.VerifiedBy = verifiedBy.String
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		m.VerifiedAt = &t
	}
	return m, nil
}

// UpdateMatchStatus transitions a match's review status. Verified and
// reviewed transitions with a named verifier stamp the audit columns.
func (s *Storage) UpdateMatchStatus(id string, status matcher.Status, notes, verifiedBy string) error {
	terminal := status == matcher.StatusVerified || status == matcher.StatusReviewed

	var result sql.Result
	var err error
	if terminal && verifiedBy != "" {
		result, err = s.db.Exec(`
			UPDATE reconciliation_matches
			SET status = ?, notes = ?, verified_by = ?, verified_at = ?
			WHERE id = ?`,
			string(status), notes, verifiedBy, time.Now().UTC(), id,
		)
	} else {
		result, err = s.db.Exec(`
			UPDATE reconciliation_matches
			SET status = ?, notes = ?
			WHERE id = ?`,
			string(status), notes, id,
		)
	}
	if err != nil {
		return err
	}
	return requireRow(result)
}

// DeleteMatch removes a match.
func (s *Storage) DeleteMatch(id string) error {
	result, err := s.db.Exec(`DELETE FROM reconciliation_matches WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Stats returns aggregate reconciliation counts for an owner.
func (s *Storage) Stats(ownerID string) (*ReconciliationStats, error) {
	stats := &ReconciliationStats{}

	err := s.db.QueryRow(`
		SELECT
			COUNT(*) as total,
			COUNT(CASE WHEN reconciliation_status = 'unmatched' THEN 1 END) as unmatched
		FROM bank_statements
		WHERE owner_id = ?`, ownerID,
	).Scan(&stats.TotalStatements, &stats.UnmatchedStatements)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRow(`
		SELECT
			COUNT(*) as total,
			COUNT(CASE WHEN status = 'pending' THEN 1 END) as pending,
			COUNT(CASE WHEN status = 'verified' THEN 1 END) as verified,
			COUNT(CASE WHEN status = 'reviewed' THEN 1 END) as reviewed,
			COUNT(CASE WHEN match_type = 'automatic' THEN 1 END) as automatic,
			COUNT(CASE WHEN match_type = 'suggested' THEN 1 END) as suggested
		FROM reconciliation_matches
		WHERE owner_id = ?`, ownerID,
	).Scan(
		&stats.TotalMatches,
		&stats.PendingMatches,
		&stats.VerifiedMatches,
		&stats.ReviewedMatches,
		&stats.AutomaticMatches,
		&stats.SuggestedMatches,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// requireRow converts a zero-row update/delete into ErrNotFound.
func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

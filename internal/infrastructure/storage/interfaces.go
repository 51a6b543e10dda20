package storage

import (
	"errors"

	"github.com/contaflow/reconcile-api/internal/domain/matcher"
)

// ErrNotFound indicates the referenced row does not exist (or does not
// belong to the given owner).
var ErrNotFound = errors.New("record not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations and makes testing with
// the in-memory mock straightforward.
type Repository interface {
	StatementRepository
	TransactionRepository
	MatchRepository
	Close() error
}

// StatementRepository handles bank-statement lines.
type StatementRepository interface {
	// InsertStatements bulk-inserts the lines of one import batch.
	InsertStatements(lines []*StatementLine) error

	// ListStatements returns statement lines matching the filters with
	// pagination. Filters.OwnerID is required.
	ListStatements(filters StatementFilters) (*StatementListResult, error)

	// UnmatchedStatements returns unmatched lines for an owner,
	// optionally scoped to a single statement line id.
	UnmatchedStatements(ownerID, statementID string) ([]*StatementLine, error)

	// MarkStatementMatched flips a line's reconciliation status.
	MarkStatementMatched(id string) error

	// DeleteStatement deletes a line, cascading to its matches first.
	DeleteStatement(id string) error
}

// TransactionRepository handles the ledger side. The reconciliation core
// only reads it; inserts exist for seeding and the import CLI.
type TransactionRepository interface {
	// InsertTransaction stores a ledger transaction.
	InsertTransaction(tx *LedgerTransaction) error

	// UnmatchedTransactions returns an owner's candidate transactions:
	// not soft-deleted and with no match in a terminal status.
	UnmatchedTransactions(ownerID string) ([]*LedgerTransaction, error)

	// SoftDeleteTransaction marks a transaction deleted without removing
	// the row.
	SoftDeleteTransaction(id string) error
}

// MatchRepository handles reconciliation matches.
type MatchRepository interface {
	// InsertMatch stores a match. A collision on the unique
	// (statement_line_id, transaction_id) pair is not an error: it
	// returns (false, nil) so replayed uploads stay idempotent.
	InsertMatch(m *ReconciliationMatch) (bool, error)

	// GetMatch retrieves a match by id.
	GetMatch(id string) (*ReconciliationMatch, error)

	// ListMatches returns matches for review, newest first.
	ListMatches(filters MatchFilters) ([]*ReconciliationMatch, error)

	// UpdateMatchStatus transitions a match's review status. When the new
	// status is verified or reviewed and a verifier is supplied,
	// verified_at is stamped with the current time.
	UpdateMatchStatus(id string, status matcher.Status, notes, verifiedBy string) error

	// DeleteMatch removes a match.
	DeleteMatch(id string) error

	// Stats returns aggregate reconciliation counts for an owner.
	Stats(ownerID string) (*ReconciliationStats, error)
}

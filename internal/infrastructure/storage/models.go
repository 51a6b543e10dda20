package storage

import (
	"encoding/json"
	"time"

	"github.com/contaflow/reconcile-api/internal/domain/matcher"
	"github.com/contaflow/reconcile-api/internal/domain/statement"
)

// Reconciliation lifecycle of a statement line. Lines are created
// unmatched and flip to matched once a match against them reaches a
// terminal accepted status.
const (
	StatementUnmatched = "unmatched"
	StatementMatched   = "matched"
)

// StatementLine is one persisted bank-statement row. Immutable after
// insert except for reconciliation_status and deletion.
type StatementLine struct {
	ID                   string                    `json:"id"`
	OwnerID              string                    `json:"owner_id"`
	BankName             string                    `json:"bank_name"`
	AccountNumber        string                    `json:"account_number"`
	TransactionDate      time.Time                 `json:"transaction_date"`
	Description          string                    `json:"description"`
	AmountCents          int64                     `json:"-"`
	BalanceCents         *int64                    `json:"-"`
	ReferenceNumber      string                    `json:"reference_number,omitempty"`
	TransactionType      statement.TransactionType `json:"transaction_type"`
	ImportBatchID        string                    `json:"import_batch_id"`
	ReconciliationStatus string                    `json:"reconciliation_status"`
	CreatedAt            time.Time                 `json:"created_at"`
}

// LedgerTransaction is a user-recorded accounting entry, independent of
// any bank statement. Read-only to the reconciliation core apart from
// seeding and soft deletion.
type LedgerTransaction struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	AmountCents int64     `json:"-"`
	IsDeleted   bool      `json:"is_deleted"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReconciliationMatch pairs a statement line with a ledger transaction.
// The (StatementLineID, TransactionID) pair is unique among persisted
// matches; replayed inserts are skipped, not errors.
type ReconciliationMatch struct {
	ID                    string            `json:"id"`
	OwnerID               string            `json:"owner_id"`
	StatementLineID       string            `json:"statement_line_id"`
	TransactionID         string            `json:"transaction_id"`
	MatchType             matcher.MatchType `json:"match_type"`
	Confidence            float64           `json:"match_confidence"`
	Criteria              matcher.Criteria  `json:"match_criteria"`
	AmountDiffCents       int64             `json:"-"`
	DateDiffDays          int               `json:"date_difference"`
	DescriptionSimilarity float64           `json:"description_similarity"`
	Status                matcher.Status    `json:"status"`
	Notes                 string            `json:"notes,omitempty"`
	VerifiedBy            string            `json:"verified_by,omitempty"`
	VerifiedAt            *time.Time        `json:"verified_at,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
}

// criteriaJSON serializes the structured criteria for the TEXT column.
func criteriaJSON(c matcher.Criteria) string {
	data, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// parseCriteria deserializes the criteria column; a malformed blob yields
// the zero criteria rather than failing the read.
func parseCriteria(s string) matcher.Criteria {
	var c matcher.Criteria
	if s != "" {
		_ = json.Unmarshal([]byte(s), &c)
	}
	return c
}

// StatementFilters narrows ListStatements. OwnerID is required; zero
// values elsewhere mean no filter.
type StatementFilters struct {
	OwnerID   string
	Status    string
	Bank      string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}

// StatementListResult contains one page of statement lines.
type StatementListResult struct {
	Statements []*StatementLine `json:"statements"`
	TotalCount int              `json:"total_count"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

// MatchFilters narrows ListMatches.
type MatchFilters struct {
	OwnerID string
	Status  string
	Limit   int
	Offset  int
}

// ReconciliationStats aggregates match counts for an owner.
type ReconciliationStats struct {
	TotalStatements     int `json:"total_statements"`
	UnmatchedStatements int `json:"unmatched_statements"`
	TotalMatches        int `json:"total_matches"`
	PendingMatches      int `json:"pending_matches"`
	VerifiedMatches     int `json:"verified_matches"`
	ReviewedMatches     int `json:"reviewed_matches"`
	AutomaticMatches    int `json:"automatic_matches"`
	SuggestedMatches    int `json:"suggested_matches"`
}

package dto

import (
	"time"

	"github.com/contaflow/reconcile-api/internal/application/reconcile"
	"github.com/contaflow/reconcile-api/internal/domain/matcher"
	"github.com/contaflow/reconcile-api/internal/domain/money"
	"github.com/contaflow/reconcile-api/internal/infrastructure/storage"
)

// StatementResponse is one bank-statement line on the wire. Monetary
// fields are two-decimal strings; integer cents never cross the API.
type StatementResponse struct {
	ID                   string  `json:"id"`
	OwnerID              string  `json:"owner_id"`
	BankName             string  `json:"bank_name"`
	AccountNumber        string  `json:"account_number,omitempty"`
	TransactionDate      string  `json:"transaction_date"`
	Description          string  `json:"description"`
	Amount               string  `json:"amount"`
	Balance              *string `json:"balance,omitempty"`
	ReferenceNumber      string  `json:"reference_number,omitempty"`
	TransactionType      string  `json:"transaction_type"`
	ImportBatchID        string  `json:"import_batch_id"`
	ReconciliationStatus string  `json:"reconciliation_status"`
	CreatedAt            string  `json:"created_at"`
}

// MatchResponse is one reconciliation match on the wire.
type MatchResponse struct {
	ID                    string           `json:"id"`
	OwnerID               string           `json:"owner_id"`
	StatementLineID       string           `json:"statement_line_id"`
	TransactionID         string           `json:"transaction_id"`
	MatchType             string           `json:"match_type"`
	Confidence            float64          `json:"match_confidence"`
	Criteria              matcher.Criteria `json:"match_criteria"`
	AmountDifference      string           `json:"amount_difference"`
	DateDifference        int              `json:"date_difference"`
	DescriptionSimilarity float64          `json:"description_similarity"`
	Status                string           `json:"status"`
	Notes                 string           `json:"notes,omitempty"`
	VerifiedBy            string           `json:"verified_by,omitempty"`
	VerifiedAt            string           `json:"verified_at,omitempty"`
	CreatedAt             string           `json:"created_at"`
}

// StatementListResponse is one page of statement lines.
type StatementListResponse struct {
	Statements []StatementResponse `json:"statements"`
	TotalCount int                 `json:"total_count"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
}

// MatchListResponse is a page of matches for the review queue.
type MatchListResponse struct {
	Matches []MatchResponse `json:"matches"`
	Count   int             `json:"count"`
}

// UploadResponse summarizes a completed statement upload.
type UploadResponse struct {
	ImportBatchID      string              `json:"import_batch_id"`
	StatementsImported int                 `json:"statements_imported"`
	RowsSkipped        int                 `json:"rows_skipped"`
	MatchesFound       int                 `json:"matches_found"`
	MatchesInserted    int                 `json:"matches_inserted"`
	DuplicatesSkipped  int                 `json:"duplicates_skipped"`
	Statements         []StatementResponse `json:"statements"`
}

// FromStatementLine converts a stored line to its wire form.
func FromStatementLine(line *storage.StatementLine) StatementResponse {
	resp := StatementResponse{
		ID:                   line.ID,
		OwnerID:              line.OwnerID,
		BankName:             line.BankName,
		AccountNumber:        line.AccountNumber,
		TransactionDate:      line.TransactionDate.Format("2006-01-02"),
		Description:          line.Description,
		Amount:               money.FromCents(line.AmountCents),
		ReferenceNumber:      line.ReferenceNumber,
		TransactionType:      string(line.TransactionType),
		ImportBatchID:        line.ImportBatchID,
		ReconciliationStatus: line.ReconciliationStatus,
		CreatedAt:            line.CreatedAt.Format(time.RFC3339),
	}
	resp.Balance = money.NullableFromCents(line.BalanceCents)
	return resp
}

// FromMatch converts a stored match to its wire form.
func FromMatch(m *storage.ReconciliationMatch) MatchResponse {
	resp := MatchResponse{
		ID:                    m.ID,
		OwnerID:               m.OwnerID,
		StatementLineID:       m.StatementLineID,
		TransactionID:         m.TransactionID,
		MatchType:             string(m.MatchType),
		Confidence:            m.Confidence,
		Criteria:              m.Criteria,
		AmountDifference:      money.FromCents(m.AmountDiffCents),
		DateDifference:        m.DateDiffDays,
		DescriptionSimilarity: m.DescriptionSimilarity,
		Status:                string(m.Status),
		Notes:                 m.Notes,
		VerifiedBy:            m.VerifiedBy,
		CreatedAt:             m.CreatedAt.Format(time.RFC3339),
	}
	if m.VerifiedAt != nil {
		resp.VerifiedAt = m.VerifiedAt.Format(time.RFC3339)
	}
	return resp
}

// FromStatementLines converts a slice of stored lines.
func FromStatementLines(lines []*storage.StatementLine) []StatementResponse {
	out := make([]StatementResponse, 0, len(lines))
	for _, line := range lines {
		out = append(out, FromStatementLine(line))
	}
	return out
}

// FromMatches converts a slice of stored matches.
func FromMatches(matches []*storage.ReconciliationMatch) []MatchResponse {
	out := make([]MatchResponse, 0, len(matches))
	for _, m := range matches {
		out = append(out, FromMatch(m))
	}
	return out
}

// FromUploadResult converts an orchestrator summary to its wire form.
func FromUploadResult(result *reconcile.UploadResult) UploadResponse {
	return UploadResponse{
		ImportBatchID:      result.ImportBatchID,
		StatementsImported: result.StatementsImported,
		RowsSkipped:        result.RowsSkipped,
		MatchesFound:       result.MatchesFound,
		MatchesInserted:    result.MatchesInserted,
		DuplicatesSkipped:  result.DuplicatesSkipped,
		Statements:         FromStatementLines(result.Statements),
	}
}

package reconcile

import (
	"errors"

	"github.com/contaflow/reconcile-api/internal/infrastructure/storage"
)

// ErrInvalidStatus indicates a review transition to a status outside
// pending/verified/reviewed.
var ErrInvalidStatus = errors.New("invalid match status")

// UploadRequest carries one statement upload batch.
type UploadRequest struct {
	OwnerID       string
	BankName      string
	AccountNumber string
	CSVData       string
}

// UploadResult summarizes one completed ingest-match-persist run.
type UploadResult struct {
	ImportBatchID      string                   `json:"import_batch_id"`
	StatementsImported int                      `json:"statements_imported"`
	RowsSkipped        int                      `json:"rows_skipped"`
	MatchesFound       int                      `json:"matches_found"`
	MatchesInserted    int                      `json:"matches_inserted"`
	DuplicatesSkipped  int                      `json:"duplicates_skipped"`
	Statements         []*storage.StatementLine `json:"statements"`
}

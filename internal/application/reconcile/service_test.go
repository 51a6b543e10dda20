package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaflow/reconcile-api/internal/domain/matcher"
	"github.com/contaflow/reconcile-api/internal/domain/statement"
	"github.com/contaflow/reconcile-api/internal/infrastructure/storage"
)

func newTestService(repo storage.Repository) *Service {
	return NewService(repo, matcher.NewEngine(matcher.DefaultConfig()), nil)
}

func seedTransaction(t *testing.T, repo *storage.MockRepository, id, owner, desc string, cents int64, date time.Time) {
	t.Helper()
	require.NoError(t, repo.InsertTransaction(&storage.LedgerTransaction{
		ID:          id,
		OwnerID:     owner,
		Date:        date,
		Description: desc,
		AmountCents: cents,
	}))
}

const perfectCSV = "date,description,amount\n" +
	"2024-03-01,Pago Luz CFE,-1500.00\n"

func TestUpload_PerfectMatchAutoVerified(t *testing.T) {
	// Arrange
	repo := storage.NewMockRepository()
	svc := newTestService(repo)
	seedTransaction(t, repo, "tx1", "owner1", "Pago Luz",
		-150000, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	// Act
	result, err := svc.Upload(context.Background(), UploadRequest{
		OwnerID:  "owner1",
		BankName: "BBVA",
		CSVData:  perfectCSV,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.StatementsImported)
	assert.Equal(t, 1, result.MatchesFound)
	assert.Equal(t, 1, result.MatchesInserted)
	assert.Equal(t, 0, result.DuplicatesSkipped)
	assert.NotEmpty(t, result.ImportBatchID)
	require.Len(t, result.Statements, 1)
	assert.Equal(t, int64(-150000), result.Statements[0].AmountCents)
	assert.Equal(t, result.ImportBatchID, result.Statements[0].ImportBatchID)

	matches, err := repo.ListMatches(storage.MatchFilters{OwnerID: "owner1"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, matcher.TypeAutomatic, m.MatchType)
	assert.Equal(t, matcher.StatusVerified, m.Status)
	assert.Equal(t, matcher.SystemActor, m.VerifiedBy)
	require.NotNil(t, m.VerifiedAt)

	// Auto-acceptance settles the statement line.
	unmatched, err := repo.UnmatchedStatements("owner1", "")
	require.NoError(t, err)
	assert.Empty(t, unmatched)
}

func TestUpload_SuggestedMatchStaysPending(t *testing.T) {
	// Arrange - same amount, 4 days apart, unrelated descriptions: 0.6
	repo := storage.NewMockRepository()
	svc := newTestService(repo)
	seedTransaction(t, repo, "tx1", "owner1", "Office rent",
		-150000, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	csv := "date,description,amount\n2024-03-01,Transferencia SPEI,-1500.00\n"

	// Act
	result, err := svc.Upload(context.Background(), UploadRequest{
		OwnerID: "owner1", BankName: "BBVA", CSVData: csv,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.MatchesInserted)

	matches, err := repo.ListMatches(storage.MatchFilters{OwnerID: "owner1"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, matcher.TypeSuggested, matches[0].MatchType)
	assert.Equal(t, matcher.StatusPending, matches[0].Status)
	assert.Empty(t, matches[0].VerifiedBy)
	assert.Nil(t, matches[0].VerifiedAt)

	// Pending matches do not settle the line.
	unmatched, err := repo.UnmatchedStatements("owner1", "")
	require.NoError(t, err)
	assert.Len(t, unmatched, 1)
}

func TestUpload_ReplayIsIdempotent(t *testing.T) {
	// Arrange - an auto-accepted match excludes its transaction from the
	// second run, so replaying the upload adds no new matches.
	repo := storage.NewMockRepository()
	svc := newTestService(repo)
	seedTransaction(t, repo, "tx1", "owner1", "Pago Luz",
		-150000, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))

	req := UploadRequest{OwnerID: "owner1", BankName: "BBVA", CSVData: perfectCSV}

	// Act
	first, err := svc.Upload(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Upload(context.Background(), req)
	require.NoError(t, err)

	// Assert - statement lines duplicate, unique matches do not
	assert.Equal(t, 1, first.MatchesInserted)
	assert.Equal(t, 0, second.MatchesInserted)

	matches, err := repo.ListMatches(storage.MatchFilters{OwnerID: "owner1"})
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	all, err := repo.ListStatements(storage.StatementFilters{OwnerID: "owner1"})
	require.NoError(t, err)
	assert.Equal(t, 2, all.TotalCount)
}

func TestUpload_DuplicateProposalSkippedNotFatal(t *testing.T) {
	// Arrange - a pending suggestion re-proposed on the second run hits
	// the unique pair and is counted as a skip while the batch continues.
	repo := storage.NewMockRepository()
	svc := newTestService(repo)
	seedTransaction(t, repo, "tx1", "owner1", "Office rent",
		-150000, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))

	csv := "date,description,amount\n2024-03-01,Transferencia SPEI,-1500.00\n"
	req := UploadRequest{OwnerID: "owner1", BankName: "BBVA", CSVData: csv}

	// Act
	_, err := svc.Upload(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Upload(context.Background(), req)
	require.NoError(t, err)

	// Assert - old pair skipped, duplicated line still produces its own
	// proposal (overlap is deliberate)
	assert.Equal(t, 1, second.DuplicatesSkipped)
	assert.Equal(t, 1, second.MatchesInserted)
}

func TestUpload_NoDataRows(t *testing.T) {
	svc := newTestService(storage.NewMockRepository())

	_, err := svc.Upload(context.Background(), UploadRequest{
		OwnerID: "owner1", BankName: "BBVA", CSVData: "date,description,amount\n",
	})

	assert.ErrorIs(t, err, statement.ErrNoDataRows)
}

func TestUpload_NoValidRows(t *testing.T) {
	svc := newTestService(storage.NewMockRepository())

	_, err := svc.Upload(context.Background(), UploadRequest{
		OwnerID: "owner1", BankName: "BBVA",
		CSVData: "date,description,amount\n,,\n",
	})

	assert.ErrorIs(t, err, statement.ErrNoValidRows)
}

func TestUpload_CountsSkippedRows(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newTestService(repo)

	csv := "date,description,amount\n" +
		"2024-03-01,Good row,-100.00\n" +
		"bad-date,Skipped row,-50.00\n"

	result, err := svc.Upload(context.Background(), UploadRequest{
		OwnerID: "owner1", BankName: "BBVA", CSVData: csv,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.StatementsImported)
	assert.Equal(t, 1, result.RowsSkipped)
}

func TestReviewMatch_StampsAuditFields(t *testing.T) {
	// Arrange
	repo := storage.NewMockRepository()
	svc := newTestService(repo)
	require.NoError(t, repo.InsertStatements([]*storage.StatementLine{{
		ID: "s1", OwnerID: "owner1", ReconciliationStatus: storage.StatementUnmatched,
	}}))
	_, err := repo.InsertMatch(&storage.ReconciliationMatch{
		ID: "m1", OwnerID: "owner1", StatementLineID: "s1", TransactionID: "t1",
		MatchType: matcher.TypeSuggested, Status: matcher.StatusPending,
	})
	require.NoError(t, err)

	// Act
	updated, err := svc.ReviewMatch(context.Background(), "m1", matcher.StatusVerified, "checked", "maria")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, matcher.StatusVerified, updated.Status)
	assert.Equal(t, "maria", updated.VerifiedBy)
	require.NotNil(t, updated.VerifiedAt)

	unmatched, err := repo.UnmatchedStatements("owner1", "")
	require.NoError(t, err)
	assert.Empty(t, unmatched)
}

func TestReviewMatch_InvalidStatus(t *testing.T) {
	svc := newTestService(storage.NewMockRepository())

	_, err := svc.ReviewMatch(context.Background(), "m1", matcher.Status("approved"), "", "")

	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestReviewMatch_NotFound(t *testing.T) {
	svc := newTestService(storage.NewMockRepository())

	_, err := svc.ReviewMatch(context.Background(), "missing", matcher.StatusVerified, "", "x")

	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeletePassthroughs(t *testing.T) {
	repo := storage.NewMockRepository()
	svc := newTestService(repo)

	assert.ErrorIs(t, svc.DeleteStatement(context.Background(), "missing"), storage.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteMatch(context.Background(), "missing"), storage.ErrNotFound)
}

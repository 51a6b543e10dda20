// Package reconcile wires statement ingestion, matching, and persistence
// into the upload and review workflows.
//
// An upload runs the whole pipeline to completion before responding:
// CSV text is normalized, converted to cents, stored as an unmatched
// batch, scored against the owner's full unmatched sets, and every
// proposal clearing the floor is persisted. Replaying the same upload is
// safe: the store absorbs duplicate match pairs and reports them as
// skips.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/contaflow/reconcile-api/internal/domain/matcher"
	"github.com/contaflow/reconcile-api/internal/domain/money"
	"github.com/contaflow/reconcile-api/internal/domain/statement"
	"github.com/contaflow/reconcile-api/internal/infrastructure/storage"
)

// Service orchestrates the upload and review workflows.
type Service struct {
	repo   storage.Repository
	engine *matcher.Engine
	logger *slog.Logger

	// Injectable for tests
	now   func() time.Time
	newID func() string
}

// NewService creates the orchestrator.
func NewService(repo storage.Repository, engine *matcher.Engine, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		engine: engine,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Upload runs the full ingest-match-persist pipeline for one CSV batch.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	parsed, skipped, err := statement.ParseCSV(req.CSVData)
	if err != nil {
		return nil, err
	}

	batchID := s.newID()
	lines := make([]*storage.StatementLine, 0, len(parsed))
	for _, p := range parsed {
		cents, err := money.ToCents(p.Amount)
		if err != nil {
			// Out-of-range amounts are a row problem, not a batch problem.
			skipped++
			continue
		}
		balance, err := money.NullableToCents(p.Balance)
		if err != nil {
			balance = nil
		}

		lines = append(lines, &storage.StatementLine{
			ID:                   s.newID(),
			OwnerID:              req.OwnerID,
			BankName:             req.BankName,
			AccountNumber:        req.AccountNumber,
			TransactionDate:      p.TransactionDate,
			Description:          p.Description,
			AmountCents:          cents,
			BalanceCents:         balance,
			ReferenceNumber:      p.ReferenceNumber,
			TransactionType:      p.Type,
			ImportBatchID:        batchID,
			ReconciliationStatus: storage.StatementUnmatched,
		})
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w (%d rows skipped)", statement.ErrNoValidRows, skipped)
	}

	if err := s.repo.InsertStatements(lines); err != nil {
		return nil, fmt.Errorf("failed to insert statement batch: %w", err)
	}

	s.logger.Info("statement batch imported",
		"owner_id", req.OwnerID,
		"batch_id", batchID,
		"imported", len(lines),
		"skipped", skipped)

	inserted, duplicates, found, err := s.matchOwner(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		ImportBatchID:      batchID,
		StatementsImported: len(lines),
		RowsSkipped:        skipped,
		MatchesFound:       found,
		MatchesInserted:    inserted,
		DuplicatesSkipped:  duplicates,
		Statements:         lines,
	}, nil
}

// matchOwner scores the owner's full unmatched sets and persists every
// proposal.
func (s *Service) matchOwner(_ context.Context, ownerID string) (inserted, duplicates, found int, err error) {
	unmatched, err := s.repo.UnmatchedStatements(ownerID, "")
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to fetch unmatched statements: %w", err)
	}
	candidates, err := s.repo.UnmatchedTransactions(ownerID)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to fetch unmatched transactions: %w", err)
	}

	statements := make([]matcher.Statement, len(unmatched))
	for i, line := range unmatched {
		statements[i] = matcher.Statement{
			ID:          line.ID,
			Date:        line.TransactionDate,
			Description: line.Description,
			AmountCents: line.AmountCents,
		}
	}
	transactions := make([]matcher.Transaction, len(candidates))
	for i, tx := range candidates {
		transactions[i] = matcher.Transaction{
			ID:          tx.ID,
			Date:        tx.Date,
			Description: tx.Description,
			AmountCents: tx.AmountCents,
		}
	}

	proposals := s.engine.Propose(statements, transactions)

	for _, p := range proposals {
		m := &storage.ReconciliationMatch{
			ID:                    s.newID(),
			OwnerID:               ownerID,
			StatementLineID:       p.StatementID,
			TransactionID:         p.TransactionID,
			MatchType:             p.MatchType,
			Confidence:            p.Confidence,
			Criteria:              p.Criteria,
			AmountDiffCents:       p.AmountDiffCents,
			DateDiffDays:          p.DateDiffDays,
			DescriptionSimilarity: p.DescriptionSimilarity,
			Status:                p.Status,
		}
		if p.Status == matcher.StatusVerified {
			// Auto-accepted: attributed to the system actor so the audit
			// columns stay truthful.
			m.VerifiedBy = matcher.SystemActor
			now := s.now()
			m.VerifiedAt = &now
		}

		ok, err := s.repo.InsertMatch(m)
		if err != nil {
			return inserted, duplicates, len(proposals), fmt.Errorf("failed to insert match: %w", err)
		}
		if !ok {
			duplicates++
			continue
		}
		inserted++

		if p.Status == matcher.StatusVerified {
			if err := s.repo.MarkStatementMatched(p.StatementID); err != nil {
				return inserted, duplicates, len(proposals), fmt.Errorf("failed to mark statement matched: %w", err)
			}
		}
	}

	s.logger.Info("matching complete",
		"owner_id", ownerID,
		"proposals", len(proposals),
		"inserted", inserted,
		"duplicates_skipped", duplicates)

	return inserted, duplicates, len(proposals), nil
}

// ReviewMatch applies a human review decision to a match.
func (s *Service) ReviewMatch(ctx context.Context, matchID string, status matcher.Status, notes, verifiedBy string) (*storage.ReconciliationMatch, error) {
	switch status {
	case matcher.StatusPending, matcher.StatusVerified, matcher.StatusReviewed:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	m, err := s.repo.GetMatch(matchID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateMatchStatus(matchID, status, notes, verifiedBy); err != nil {
		return nil, err
	}

	// A terminal acceptance settles the statement line.
	if status == matcher.StatusVerified || status == matcher.StatusReviewed {
		if err := s.repo.MarkStatementMatched(m.StatementLineID); err != nil {
			return nil, err
		}
	}

	s.logger.Info("match reviewed",
		"match_id", matchID,
		"status", string(status),
		"verified_by", verifiedBy)

	return s.repo.GetMatch(matchID)
}

// DeleteStatement deletes a statement line and its matches.
func (s *Service) DeleteStatement(ctx context.Context, id string) error {
	return s.repo.DeleteStatement(id)
}

// DeleteMatch deletes a single match.
func (s *Service) DeleteMatch(ctx context.Context, id string) error {
	return s.repo.DeleteMatch(id)
}

package storage

import (
	"sort"
	"strings"
	"time"

	"github.com/contaflow/reconcile-api/internal/domain/matcher"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	statements   map[string]*StatementLine
	transactions map[string]*LedgerTransaction
	matches      map[string]*ReconciliationMatch
	matchPairs   map[string]bool // "statementID|transactionID" for dedup

	// Hooks for test assertions
	InsertStatementsCalled bool
	InsertMatchCalled      bool
	InsertedMatchCount     int
	SkippedMatchCount      int

	// Error injection for testing error paths
	InsertStatementsErr error
	InsertMatchErr      error
	ListStatementsErr   error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		statements:   make(map[string]*StatementLine),
		transactions: make(map[string]*LedgerTransaction),
		matches:      make(map[string]*ReconciliationMatch),
		matchPairs:   make(map[string]bool),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close is a no-op for the mock
func (m *MockRepository) Close() error { return nil }

// InsertStatements stores the lines in memory
func (m *MockRepository) InsertStatements(lines []*StatementLine) error {
	m.InsertStatementsCalled = true
	if m.InsertStatementsErr != nil {
		return m.InsertStatementsErr
	}
	for _, line := range lines {
		copied := *line
		if copied.CreatedAt.IsZero() {
			copied.CreatedAt = time.Now().UTC()
		}
		m.statements[line.ID] = &copied
	}
	return nil
}

// ListStatements applies the filters in memory
func (m *MockRepository) ListStatements(filters StatementFilters) (*StatementListResult, error) {
	if m.ListStatementsErr != nil {
		return nil, m.ListStatementsErr
	}

	var all []*StatementLine
	for _, line := range m.statements {
		if line.OwnerID != filters.OwnerID {
			continue
		}
		if filters.Status != "" && line.ReconciliationStatus != filters.Status {
			continue
		}
		if filters.Bank != "" && line.BankName != filters.Bank {
			continue
		}
		if !filters.StartDate.IsZero() && line.TransactionDate.Before(filters.StartDate) {
			continue
		}
		if !filters.EndDate.IsZero() && line.TransactionDate.After(filters.EndDate) {
			continue
		}
		all = append(all, line)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].TransactionDate.After(all[j].TransactionDate)
	})

	total := len(all)
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	start := filters.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	return &StatementListResult{
		Statements: all[start:end],
		TotalCount: total,
		Limit:      limit,
		Offset:     filters.Offset,
	}, nil
}

// UnmatchedStatements returns unmatched lines for an owner
func (m *MockRepository) UnmatchedStatements(ownerID, statementID string) ([]*StatementLine, error) {
	var out []*StatementLine
	for _, line := range m.statements {
		if line.OwnerID != ownerID || line.ReconciliationStatus != StatementUnmatched {
			continue
		}
		if statementID != "" && line.ID != statementID {
			continue
		}
		out = append(out, line)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TransactionDate.Before(out[j].TransactionDate)
	})
	return out, nil
}

// MarkStatementMatched flips a line's status
func (m *MockRepository) MarkStatementMatched(id string) error {
	line, ok := m.statements[id]
	if !ok {
		return ErrNotFound
	}
	line.ReconciliationStatus = StatementMatched
	return nil
}

// DeleteStatement removes a line and its matches
func (m *MockRepository) DeleteStatement(id string) error {
	if _, ok := m.statements[id]; !ok {
		return ErrNotFound
	}
	for matchID, match := range m.matches {
		if match.StatementLineID == id {
			delete(m.matchPairs, pairKey(match.StatementLineID, match.TransactionID))
			delete(m.matches, matchID)
		}
	}
	delete(m.statements, id)
	return nil
}

// InsertTransaction stores a ledger transaction
func (m *MockRepository) InsertTransaction(t *LedgerTransaction) error {
	copied := *t
	m.transactions[t.ID] = &copied
	return nil
}

// UnmatchedTransactions filters soft-deleted and terminally matched rows
func (m *MockRepository) UnmatchedTransactions(ownerID string) ([]*LedgerTransaction, error) {
	terminal := make(map[string]bool)
	for _, match := range m.matches {
		if match.Status == matcher.StatusVerified || match.Status == matcher.StatusReviewed {
			terminal[match.TransactionID] = true
		}
	}

	var out []*LedgerTransaction
	for _, t := range m.transactions {
		if t.OwnerID != ownerID || t.IsDeleted || terminal[t.ID] {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// SoftDeleteTransaction marks a transaction deleted
func (m *MockRepository) SoftDeleteTransaction(id string) error {
	t, ok := m.transactions[id]
	if !ok {
		return ErrNotFound
	}
	t.IsDeleted = true
	return nil
}

// InsertMatch mirrors the unique-pair semantics of the sqlite store
func (m *MockRepository) InsertMatch(match *ReconciliationMatch) (bool, error) {
	m.InsertMatchCalled = true
	if m.InsertMatchErr != nil {
		return false, m.InsertMatchErr
	}

	key := pairKey(match.StatementLineID, match.TransactionID)
	if m.matchPairs[key] {
		m.SkippedMatchCount++
		return false, nil
	}

	copied := *match
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now().UTC()
	}
	m.matches[match.ID] = &copied
	m.matchPairs[key] = true
	m.InsertedMatchCount++
	return true, nil
}

// GetMatch retrieves a match by id
func (m *MockRepository) GetMatch(id string) (*ReconciliationMatch, error) {
	match, ok := m.matches[id]
	if !ok {
		return nil, ErrNotFound
	}
	return match, nil
}

// ListMatches returns matches for an owner
func (m *MockRepository) ListMatches(filters MatchFilters) ([]*ReconciliationMatch, error) {
	var out []*ReconciliationMatch
	for _, match := range m.matches {
		if match.OwnerID != filters.OwnerID {
			continue
		}
		if filters.Status != "" && string(match.Status) != filters.Status {
			continue
		}
		out = append(out, match)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateMatchStatus mirrors the audit-stamping behavior of the sqlite store
func (m *MockRepository) UpdateMatchStatus(id string, status matcher.Status, notes, verifiedBy string) error {
	match, ok := m.matches[id]
	if !ok {
		return ErrNotFound
	}
	match.Status = status
	match.Notes = notes

	terminal := status == matcher.StatusVerified || status == matcher.StatusReviewed
	if terminal && verifiedBy != "" {
		match.VerifiedBy = verifiedBy
		now := time.Now().UTC()
		match.VerifiedAt = &now
	}
	return nil
}

// DeleteMatch removes a match
func (m *MockRepository) DeleteMatch(id string) error {
	match, ok := m.matches[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.matchPairs, pairKey(match.StatementLineID, match.TransactionID))
	delete(m.matches, id)
	return nil
}

// Stats aggregates the in-memory data
func (m *MockRepository) Stats(ownerID string) (*ReconciliationStats, error) {
	stats := &ReconciliationStats{}
	for _, line := range m.statements {
		if line.OwnerID != ownerID {
			continue
		}
		stats.TotalStatements++
		if line.ReconciliationStatus == StatementUnmatched {
			stats.UnmatchedStatements++
		}
	}
	for _, match := range m.matches {
		if match.OwnerID != ownerID {
			continue
		}
		stats.TotalMatches++
		switch match.Status {
		case matcher.StatusPending:
			stats.PendingMatches++
		case matcher.StatusVerified:
			stats.VerifiedMatches++
		case matcher.StatusReviewed:
			stats.ReviewedMatches++
		}
		switch match.MatchType {
		case matcher.TypeAutomatic:
			stats.AutomaticMatches++
		case matcher.TypeSuggested:
			stats.SuggestedMatches++
		}
	}
	return stats, nil
}

func pairKey(statementID, transactionID string) string {
	return strings.Join([]string{statementID, transactionID}, "|")
}

package statement

import "time"

// TransactionType classifies a statement line as money in or money out.
type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
)

// ParsedLine is one normalized row from a bank statement export.
// Amounts are signed decimal strings (deposits positive, withdrawals
// negative); conversion to cents happens at the persistence boundary.
type ParsedLine struct {
	TransactionDate time.Time
	Description     string
	Amount          string
	Balance         *string
	ReferenceNumber string
	Type            TransactionType
}

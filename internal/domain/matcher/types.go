package matcher

import "time"

// MatchType distinguishes auto-accepted matches from ones awaiting review.
type MatchType string

const (
	TypeAutomatic MatchType = "automatic"
	TypeSuggested MatchType = "suggested"
)

// Status is the review lifecycle of a persisted match.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusReviewed Status = "reviewed"
)

// SystemActor is the synthetic verified_by value stamped on auto-accepted
// matches. Auto-acceptance sets status=verified without a human in the
// loop, which would otherwise leave the audit trail claiming a
// verification nobody performed; attributing it to a named system actor
// keeps verified_by/verified_at meaningful. See DESIGN.md for the
// alternative considered (a distinct auto-verified status).
const SystemActor = "auto-match"

// Tier labels how closely a single factor matched.
type Tier string

const (
	TierExact   Tier = "exact"
	TierClose   Tier = "close"
	TierSimilar Tier = "similar"
	TierNone    Tier = "none"
)

// Criteria records which sub-scores fired for a proposal. It exists for
// explainability in the review UI; the engine never reads it back.
type Criteria struct {
	AmountTier       Tier    `json:"amount_tier"`
	DateTier         Tier    `json:"date_tier"`
	DescriptionScore float64 `json:"description_score"`
}

// Statement is the matcher's view of an unmatched bank-statement line.
type Statement struct {
	ID          string
	Date        time.Time
	Description string
	AmountCents int64
}

// Transaction is the matcher's view of an unmatched ledger transaction.
type Transaction struct {
	ID          string
	Date        time.Time
	Description string
	AmountCents int64
}

// Proposal is one scored statement/transaction pairing that cleared the
// inclusion floor.
type Proposal struct {
	StatementID           string
	TransactionID         string
	MatchType             MatchType
	Status                Status
	Confidence            float64
	Criteria              Criteria
	AmountDiffCents       int64
	DateDiffDays          int
	DescriptionSimilarity float64
}

// Config holds the engine's classification thresholds.
type Config struct {
	// AutoAcceptThreshold is the confidence at or above which a proposal
	// is marked automatic and immediately verified.
	AutoAcceptThreshold float64 `yaml:"auto_accept_threshold"`

	// ProposalFloor is the minimum confidence for a pairing to be
	// proposed at all.
	ProposalFloor float64 `yaml:"proposal_floor"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		AutoAcceptThreshold: 0.85,
		ProposalFloor:       0.5,
	}
}

// Package matcher scores candidate pairings between bank-statement lines
// and ledger transactions.
//
// The engine scores every pair in the cross product with a weighted
// three-factor heuristic:
//   - Amount closeness on integer cents (up to +0.5)
//   - Date proximity in calendar days (up to +0.3)
//   - Description similarity (up to +0.2)
//
// Pairs at or above the auto-accept threshold come back as automatic and
// already verified; pairs between the floor and the threshold come back as
// suggested and pending review; pairs below the floor are dropped. The
// engine deliberately emits overlapping proposals — a line or transaction
// may appear in several — and leaves 1:1 assignment to human review and
// the store's unique constraint.
//
// Example usage:
//
//	engine := matcher.NewEngine(matcher.DefaultConfig())
//	proposals := engine.Propose(statements, transactions)
package matcher

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Factor weights per tier. Total confidence is the sum of the three
// factors, so the theoretical maximum is 1.0.
const (
	amountExactScore   = 0.5
	amountCloseScore   = 0.4
	amountSimilarScore = 0.2

	dateExactScore   = 0.3
	dateCloseScore   = 0.2
	dateSimilarScore = 0.1

	descStrongScore = 0.2
	descWeakScore   = 0.1
)

// Relative-difference cutoffs for the amount tiers.
const (
	amountCloseRatio   = 0.01
	amountSimilarRatio = 0.05
)

// Day cutoffs for the date tiers.
const (
	dateCloseDays   = 2
	dateSimilarDays = 5
)

// Similarity cutoffs for the description factor.
const (
	descStrongSimilarity = 0.8
	descWeakSimilarity   = 0.5
)

// Engine computes match proposals.
type Engine struct {
	config Config
}

// NewEngine creates an engine with the given thresholds.
func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

// Propose scores every statement/transaction pair and returns the
// proposals clearing the floor, sorted by descending confidence. It is a
// pure computation: empty inputs yield an empty result and no well-formed
// pair can make it fail.
func (e *Engine) Propose(statements []Statement, transactions []Transaction) []Proposal {
	var proposals []Proposal

	for _, s := range statements {
		for _, t := range transactions {
			p := e.score(s, t)
			if p.Confidence < e.config.ProposalFloor {
				continue
			}
			proposals = append(proposals, p)
		}
	}

	sort.SliceStable(proposals, func(i, j int) bool {
		return proposals[i].Confidence > proposals[j].Confidence
	})

	return proposals
}

// score computes the weighted confidence for one pair.
func (e *Engine) score(s Statement, t Transaction) Proposal {
	amountScore, amountTier, amountDiff := scoreAmount(s.AmountCents, t.AmountCents)
	dateScore, dateTier, dateDiff := scoreDate(s.Date, t.Date)
	similarity := descriptionSimilarity(s.Description, t.Description)
	descScore := scoreDescription(similarity)

	confidence := amountScore + dateScore + descScore

	p := Proposal{
		StatementID:   s.ID,
		TransactionID: t.ID,
		Confidence:    confidence,
		Criteria: Criteria{
			AmountTier:       amountTier,
			DateTier:         dateTier,
			DescriptionScore: similarity,
		},
		AmountDiffCents:       amountDiff,
		DateDiffDays:          dateDiff,
		DescriptionSimilarity: similarity,
	}

	if confidence >= e.config.AutoAcceptThreshold {
		p.MatchType = TypeAutomatic
		p.Status = StatusVerified
	} else {
		p.MatchType = TypeSuggested
		p.Status = StatusPending
	}

	return p
}

// scoreAmount compares absolute amounts as exact integer cents.
func scoreAmount(a, b int64) (float64, Tier, int64) {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}

	diff := a - b
	if diff < 0 {
		diff = -diff
	}

	if diff == 0 {
		return amountExactScore, TierExact, diff
	}

	larger := a
	if b > larger {
		larger = b
	}
	ratio := float64(diff) / float64(larger)

	switch {
	case ratio < amountCloseRatio:
		return amountCloseScore, TierClose, diff
	case ratio < amountSimilarRatio:
		return amountSimilarScore, TierSimilar, diff
	default:
		return 0, TierNone, diff
	}
}

// scoreDate compares dates by rounded day distance. Zero-value dates on
// either side degrade to no contribution rather than failing.
func scoreDate(a, b time.Time) (float64, Tier, int) {
	if a.IsZero() || b.IsZero() {
		return 0, TierNone, 0
	}

	days := int(math.Round(math.Abs(a.Sub(b).Hours() / 24)))

	switch {
	case days == 0:
		return dateExactScore, TierExact, days
	case days <= dateCloseDays:
		return dateCloseScore, TierClose, days
	case days <= dateSimilarDays:
		return dateSimilarScore, TierSimilar, days
	default:
		return 0, TierNone, days
	}
}

// scoreDescription maps a similarity value to its factor weight. The
// strong cutoff is inclusive so that plain containment (exactly 0.8)
// earns the full description weight.
func scoreDescription(similarity float64) float64 {
	switch {
	case similarity >= descStrongSimilarity:
		return descStrongScore
	case similarity > descWeakSimilarity:
		return descWeakScore
	default:
		return 0
	}
}

// descriptionSimilarity computes a [0,1] similarity between two
// descriptions: 1.0 when equal after normalization, 0.8 when one contains
// the other, otherwise the Jaccard similarity of their word sets. Empty
// descriptions score 0.
func descriptionSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.8
	}

	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)

	setA := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		setA[w] = true
	}
	setB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		setB[w] = true
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeStatement(id string, cents int64, date time.Time, desc string) Statement {
	return Statement{ID: id, AmountCents: cents, Date: date, Description: desc}
}

func makeTransaction(id string, cents int64, date time.Time, desc string) Transaction {
	return Transaction{ID: id, AmountCents: cents, Date: date, Description: desc}
}

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func TestEngine_PerfectMatch(t *testing.T) {
	// Arrange
	engine := NewEngine(DefaultConfig())
	statements := []Statement{
		makeStatement("s1", 150000, day, "Pago Luz CFE"),
	}
	transactions := []Transaction{
		makeTransaction("t1", -150000, day, "Pago Luz"),
	}

	// Act
	proposals := engine.Propose(statements, transactions)

	// Assert - exact amount (+0.5), exact date (+0.3), containment
	// similarity 0.8 (+0.2) = 1.0
	require.Len(t, proposals, 1)
	p := proposals[0]
	assert.Equal(t, "s1", p.StatementID)
	assert.Equal(t, "t1", p.TransactionID)
	assert.InDelta(t, 1.0, p.Confidence, 1e-9)
	assert.Equal(t, TypeAutomatic, p.MatchType)
	assert.Equal(t, StatusVerified, p.Status)
	assert.Equal(t, TierExact, p.Criteria.AmountTier)
	assert.Equal(t, TierExact, p.Criteria.DateTier)
	assert.InDelta(t, 0.8, p.DescriptionSimilarity, 1e-9)
	assert.Equal(t, int64(0), p.AmountDiffCents)
	assert.Equal(t, 0, p.DateDiffDays)
}

func TestEngine_SuggestedMatch(t *testing.T) {
	// Arrange - same amount, dates 4 days apart, unrelated descriptions
	engine := NewEngine(DefaultConfig())
	statements := []Statement{
		makeStatement("s1", 150000, day, "Transferencia SPEI"),
	}
	transactions := []Transaction{
		makeTransaction("t1", -150000, day.AddDate(0, 0, 4), "Office rent"),
	}

	// Act
	proposals := engine.Propose(statements, transactions)

	// Assert - 0.5 + 0.1 + 0 = 0.6, suggested/pending
	require.Len(t, proposals, 1)
	p := proposals[0]
	assert.InDelta(t, 0.6, p.Confidence, 1e-9)
	assert.Equal(t, TypeSuggested, p.MatchType)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, TierSimilar, p.Criteria.DateTier)
	assert.Equal(t, 4, p.DateDiffDays)
}

func TestEngine_NoMatch(t *testing.T) {
	// Arrange - amounts 50% apart, dates 10 days apart
	engine := NewEngine(DefaultConfig())
	statements := []Statement{
		makeStatement("s1", 100000, day, "Groceries"),
	}
	transactions := []Transaction{
		makeTransaction("t1", -150000, day.AddDate(0, 0, 10), "Insurance"),
	}

	// Act
	proposals := engine.Propose(statements, transactions)

	// Assert - confidence 0, nothing emitted
	assert.Empty(t, proposals)
}

func TestEngine_FloorInvariant(t *testing.T) {
	// Amount exact only (+0.5) sits at the floor and is kept; date
	// similar only (+0.1) is far below and dropped.
	engine := NewEngine(DefaultConfig())

	atFloor := engine.Propose(
		[]Statement{makeStatement("s1", 5000, day, "abc")},
		[]Transaction{makeTransaction("t1", 5000, day.AddDate(0, 0, 30), "xyz")},
	)
	require.Len(t, atFloor, 1)
	assert.InDelta(t, 0.5, atFloor[0].Confidence, 1e-9)

	belowFloor := engine.Propose(
		[]Statement{makeStatement("s1", 5000, day, "abc")},
		[]Transaction{makeTransaction("t1", 9000, day.AddDate(0, 0, 4), "xyz")},
	)
	assert.Empty(t, belowFloor)

	for _, p := range append(atFloor, belowFloor...) {
		assert.GreaterOrEqual(t, p.Confidence, 0.5)
	}
}

func TestEngine_AmountTiers(t *testing.T) {
	tests := []struct {
		name     string
		stCents  int64
		txCents  int64
		wantTier Tier
		want     float64
	}{
		{"identical", 100000, 100000, TierExact, 0.5},
		{"sign ignored", 100000, -100000, TierExact, 0.5},
		{"within one percent", 100000, 100500, TierClose, 0.4},
		{"within five percent", 100000, 103000, TierSimilar, 0.2},
		{"beyond five percent", 100000, 110000, TierNone, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, tier, _ := scoreAmount(tt.stCents, tt.txCents)
			assert.Equal(t, tt.wantTier, tier)
			assert.InDelta(t, tt.want, score, 1e-9)
		})
	}
}

func TestEngine_AmountScoreMonotonic(t *testing.T) {
	// Shrinking the amount difference never lowers the amount tier.
	base := int64(100000)
	prev := -1.0
	for _, diff := range []int64{20000, 4000, 500, 0} {
		score, _, _ := scoreAmount(base, base+diff)
		assert.GreaterOrEqual(t, score, prev)
		prev = score
	}
}

func TestEngine_DateTiers(t *testing.T) {
	tests := []struct {
		name     string
		offset   int
		wantTier Tier
		want     float64
	}{
		{"same day", 0, TierExact, 0.3},
		{"two days", 2, TierClose, 0.2},
		{"five days", 5, TierSimilar, 0.1},
		{"six days", 6, TierNone, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, tier, days := scoreDate(day, day.AddDate(0, 0, tt.offset))
			assert.Equal(t, tt.wantTier, tier)
			assert.InDelta(t, tt.want, score, 1e-9)
			assert.Equal(t, tt.offset, days)
		})
	}
}

func TestEngine_ZeroDateDegrades(t *testing.T) {
	score, tier, _ := scoreDate(time.Time{}, day)
	assert.Equal(t, 0.0, score)
	assert.Equal(t, TierNone, tier)
}

func TestDescriptionSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"equal", "Pago Luz", "pago luz", 1.0},
		{"equal after trim", "  Pago Luz ", "pago luz", 1.0},
		{"containment", "Pago Luz CFE", "Pago Luz", 0.8},
		{"jaccard half", "pago agua municipal", "pago gas municipal", 0.5},
		{"disjoint", "groceries", "insurance", 0.0},
		{"empty side", "", "anything", 0.0},
		{"both empty", "", "", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, descriptionSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestEngine_OrderedByConfidence(t *testing.T) {
	// Arrange - three transactions with descending affinity to s1
	engine := NewEngine(DefaultConfig())
	statements := []Statement{
		makeStatement("s1", 150000, day, "Pago Luz CFE"),
	}
	transactions := []Transaction{
		makeTransaction("weak", -150000, day.AddDate(0, 0, 4), "Unrelated thing"),
		makeTransaction("strong", -150000, day, "Pago Luz CFE"),
		makeTransaction("mid", -150000, day.AddDate(0, 0, 1), "Pago Luz"),
	}

	// Act
	proposals := engine.Propose(statements, transactions)

	// Assert
	require.Len(t, proposals, 3)
	assert.Equal(t, "strong", proposals[0].TransactionID)
	assert.Equal(t, "mid", proposals[1].TransactionID)
	assert.Equal(t, "weak", proposals[2].TransactionID)
	for i := 1; i < len(proposals); i++ {
		assert.GreaterOrEqual(t, proposals[i-1].Confidence, proposals[i].Confidence)
	}
}

func TestEngine_OverlappingProposals(t *testing.T) {
	// One statement may pair with several transactions; dedup to 1:1 is a
	// review/persistence concern, not the engine's.
	engine := NewEngine(DefaultConfig())
	statements := []Statement{
		makeStatement("s1", 150000, day, "Pago Luz"),
	}
	transactions := []Transaction{
		makeTransaction("t1", -150000, day, "Pago Luz"),
		makeTransaction("t2", -150000, day.AddDate(0, 0, 1), "Pago Luz"),
	}

	proposals := engine.Propose(statements, transactions)

	require.Len(t, proposals, 2)
	assert.Equal(t, "s1", proposals[0].StatementID)
	assert.Equal(t, "s1", proposals[1].StatementID)
}

func TestEngine_EmptyInputs(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	assert.Empty(t, engine.Propose(nil, nil))
	assert.Empty(t, engine.Propose([]Statement{makeStatement("s1", 100, day, "x")}, nil))
	assert.Empty(t, engine.Propose(nil, []Transaction{makeTransaction("t1", 100, day, "x")}))
}

func TestEngine_CustomThresholds(t *testing.T) {
	// Arrange - a stricter floor drops what the default config keeps.
	engine := NewEngine(Config{AutoAcceptThreshold: 0.6, ProposalFloor: 0.7})
	statements := []Statement{
		makeStatement("s1", 150000, day, "abc"),
	}
	transactions := []Transaction{
		makeTransaction("t1", -150000, day.AddDate(0, 0, 4), "xyz"), // 0.6
	}

	// Act
	proposals := engine.Propose(statements, transactions)

	// Assert
	assert.Empty(t, proposals)
}

package entities

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSignal(customer, category string, impact ImpactMarkers) *Signal {
	s := &Signal{
		ID:         uuid.New(),
		MeetingID:  uuid.New(),
		Category:   category,
		Categories: StringSet{category},
		Impact:     impact,
		ObservedAt: time.Now(),
		CreatedAt:  time.Now(),
	}
	if customer != "" {
		s.Customer = &customer
	}
	return s
}

func TestComputeImpactScore_SingleBareSignal(t *testing.T) {
	evidence := []Signal{*testSignal("MegaStore", "performance", ImpactMarkers{})}
	assert.Equal(t, 1.0, ComputeImpactScore(evidence, 0.5))
}

func TestComputeImpactScore_MarkersStack(t *testing.T) {
	evidence := []Signal{*testSignal("MegaStore", "performance", ImpactMarkers{
		Churn:      true,
		Escalation: true,
	})}
	// 1.0 base + 0.75 churn + 0.5 escalation
	assert.Equal(t, 2.25, ComputeImpactScore(evidence, 0.5))
}

func TestComputeImpactScore_RepeatCustomerDecay(t *testing.T) {
	evidence := []Signal{
		*testSignal("MegaStore", "performance", ImpactMarkers{}),
		*testSignal("MegaStore", "performance", ImpactMarkers{}),
		*testSignal("MegaStore", "performance", ImpactMarkers{}),
	}
	// 1.0 + 0.5 + 0.25
	assert.Equal(t, 1.75, ComputeImpactScore(evidence, 0.5))
}

func TestComputeImpactScore_DistinctCustomersFullWeight(t *testing.T) {
	evidence := []Signal{
		*testSignal("MegaStore", "performance", ImpactMarkers{}),
		*testSignal("Acme Corp", "performance", ImpactMarkers{}),
	}
	assert.Equal(t, 2.0, ComputeImpactScore(evidence, 0.5))
}

func TestComputeImpactScore_AnonymousSignalsNotDecayed(t *testing.T) {
	evidence := []Signal{
		*testSignal("", "performance", ImpactMarkers{}),
		*testSignal("", "performance", ImpactMarkers{}),
		*testSignal("", "performance", ImpactMarkers{}),
	}
	assert.Equal(t, 3.0, ComputeImpactScore(evidence, 0.5))
}

func TestComputeImpactScore_OrderIndependent(t *testing.T) {
	evidence := []Signal{
		*testSignal("MegaStore", "performance", ImpactMarkers{Churn: true}),
		*testSignal("MegaStore", "performance", ImpactMarkers{UsersAffected: 500}),
		*testSignal("Acme Corp", "export", ImpactMarkers{Escalation: true}),
		*testSignal("", "search", ImpactMarkers{RevenueAtRisk: 90000}),
		*testSignal("MegaStore", "performance", ImpactMarkers{}),
	}
	want := ComputeImpactScore(evidence, 0.5)

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]Signal(nil), evidence...)
		r.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, ComputeImpactScore(shuffled, 0.5))
	}
}

func TestComputeImpactScore_MonotoneUnderAppend(t *testing.T) {
	evidence := []Signal{
		*testSignal("MegaStore", "performance", ImpactMarkers{Churn: true}),
		*testSignal("Acme Corp", "performance", ImpactMarkers{}),
	}
	additions := []*Signal{
		testSignal("MegaStore", "performance", ImpactMarkers{}),
		testSignal("MegaStore", "performance", ImpactMarkers{Escalation: true}),
		testSignal("", "performance", ImpactMarkers{}),
		testSignal("Initech", "performance", ImpactMarkers{UsersAffected: 3}),
	}

	prev := ComputeImpactScore(evidence, 0.5)
	for _, s := range additions {
		evidence = append(evidence, *s)
		next := ComputeImpactScore(evidence, 0.5)
		assert.GreaterOrEqual(t, next, prev, "appending evidence must never lower the score")
		prev = next
	}
}

func TestNewOpportunity_SeedsFromSignal(t *testing.T) {
	seed := testSignal("MegaStore", "performance", ImpactMarkers{})
	opp := NewOpportunity(seed, 0.5)

	assert.Equal(t, "performance", opp.Category)
	assert.Equal(t, "MegaStore", opp.CustomerName())
	assert.Equal(t, 1, opp.EvidenceCount)
	assert.Equal(t, 1.0, opp.ImpactScore)
	assert.Equal(t, opp.ID, opp.Evidence[0].OpportunityID)
}

func TestAppendEvidence_AdoptsCustomerFromAnonymousSeed(t *testing.T) {
	opp := NewOpportunity(testSignal("", "export", ImpactMarkers{}), 0.5)
	require.Nil(t, opp.Customer)

	opp.AppendEvidence(testSignal("Acme Corp", "export", ImpactMarkers{}), 0.5)
	assert.Equal(t, "Acme Corp", opp.CustomerName())
	assert.Equal(t, 2, opp.EvidenceCount)
}

func TestDominantCategory_MostFrequentWins(t *testing.T) {
	opp := NewOpportunity(testSignal("MegaStore", "performance", ImpactMarkers{}), 0.5)
	opp.AppendEvidence(testSignal("Acme Corp", "export", ImpactMarkers{}), 0.5)
	opp.AppendEvidence(testSignal("Globex", "export", ImpactMarkers{}), 0.5)

	assert.Equal(t, "export", opp.DominantCategory())
}

func TestDominantCategory_TieResolvesToEarliestSeen(t *testing.T) {
	opp := NewOpportunity(testSignal("MegaStore", "performance", ImpactMarkers{}), 0.5)
	opp.AppendEvidence(testSignal("Acme Corp", "export", ImpactMarkers{}), 0.5)

	assert.Equal(t, "performance", opp.DominantCategory())
}

func TestNormalizeThemeLabel(t *testing.T) {
	assert.Equal(t, "performance-issues", NormalizeThemeLabel("Performance Issues"))
	assert.Equal(t, "export", NormalizeThemeLabel("  export "))
}

func TestThemeRecalculate(t *testing.T) {
	a := NewOpportunity(testSignal("MegaStore", "performance", ImpactMarkers{Churn: true}), 0.5)
	b := NewOpportunity(testSignal("Acme Corp", "performance", ImpactMarkers{}), 0.5)

	theme := NewTheme("performance")
	theme.Recalculate([]*Opportunity{a, b})

	assert.Equal(t, 2, theme.OpportunityCount)
	assert.Equal(t, 2.75, theme.TotalImpact)
	assert.Equal(t, 1.75, theme.MaxImpact)
}

func TestMeetingMarkFailed_TruncatesLongReasons(t *testing.T) {
	m := NewMeeting("Weekly sync", "some notes", MeetingSourceManual, nil)
	m.MarkFailed(strings.Repeat("x", 500))

	require.NotNil(t, m.ProcessingError)
	assert.Len(t, *m.ProcessingError, 200)
	assert.True(t, strings.HasSuffix(*m.ProcessingError, "..."))
	assert.True(t, m.IsTerminal())
}

func TestMeetingMarkDone_ClearsError(t *testing.T) {
	m := NewMeeting("Weekly sync", "some notes", MeetingSourceManual, nil)
	m.MarkFailed("transient")
	m.MarkDone()

	assert.Nil(t, m.ProcessingError)
	assert.NotNil(t, m.ProcessedAt)
	assert.Equal(t, MeetingStatusDone, m.Status)
}

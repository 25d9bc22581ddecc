package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/painpoint-labs/painpoint/internal/domain/entities"
)

func newMeeting(title, notes string, metadata map[string]interface{}) *entities.Meeting {
	return entities.NewMeeting(title, notes, entities.MeetingSourceManual, metadata)
}

func TestExtract_CategoryFromTriggerToken(t *testing.T) {
	e := NewExtractor(nil)
	signal := e.Extract(newMeeting(
		"MegaStore weekly sync",
		"The dashboard is slow during peak hours and reports timeout errors.",
		nil,
	))

	assert.Equal(t, "performance", signal.Category)
	assert.Contains(t, []string(signal.Categories), "performance")
}

func TestExtract_MultiWordTriggerMatchesAsPhrase(t *testing.T) {
	e := NewExtractor(nil)
	signal := e.Extract(newMeeting(
		"Initech check-in",
		"Generating the report takes too long for their team.",
		nil,
	))

	assert.Equal(t, "performance", signal.Category)
}

func TestExtract_PrimaryCategoryFollowsRulePriority(t *testing.T) {
	e := NewExtractor(nil)
	// Mentions both performance and export; performance is the earlier rule
	signal := e.Extract(newMeeting(
		"Acme Corp escalation",
		"The export is slow and sometimes the exported file is empty.",
		nil,
	))

	assert.Equal(t, "performance", signal.Category)
	assert.Contains(t, []string(signal.Categories), "export")
}

func TestExtract_NoRuleMatchesFallsBackToUnclassified(t *testing.T) {
	e := NewExtractor(nil)
	signal := e.Extract(newMeeting(
		"Globex catch-up",
		"General chat about renewal paperwork, nothing actionable came up.",
		nil,
	))

	assert.Equal(t, entities.CategoryUnclassified, signal.Category)
	assert.True(t, signal.Unclassified())
}

func TestExtract_NeverFailsOnDegenerateInput(t *testing.T) {
	e := NewExtractor(nil)
	signal := e.Extract(newMeeting("", "!!! ??? ***", nil))

	require.NotNil(t, signal)
	assert.Equal(t, entities.CategoryUnclassified, signal.Category)
	assert.Nil(t, signal.Customer)
}

func TestExtract_CustomerFromMetadataWinsOverTitle(t *testing.T) {
	e := NewExtractor(nil)
	signal := e.Extract(newMeeting(
		"Weekly sync",
		"Dashboard is slow for everyone.",
		map[string]interface{}{"customer": "MegaStore"},
	))

	assert.Equal(t, "MegaStore", signal.CustomerName())
}

func TestExtract_CustomerFromCapitalizedTitlePrefix(t *testing.T) {
	e := NewExtractor(nil)

	signal := e.Extract(newMeeting("Acme Corp quarterly review", "Export is broken.", nil))
	assert.Equal(t, "Acme Corp", signal.CustomerName())

	// Lowercase titles yield no customer
	signal = e.Extract(newMeeting("weekly sync notes", "Export is broken.", nil))
	assert.Nil(t, signal.Customer)
}

func TestExtract_ImpactMarkersCoercion(t *testing.T) {
	e := NewExtractor(nil)
	signal := e.Extract(newMeeting(
		"MegaStore escalation",
		"Dashboard is slow again.",
		map[string]interface{}{
			"users_affected": float64(250), // JSON numbers decode as float64
			"arr":            "120000",
			"churn":          true,
			"escalation":     "CTO", // descriptive string counts as set
		},
	))

	assert.Equal(t, 250, signal.Impact.UsersAffected)
	assert.Equal(t, 120000.0, signal.Impact.RevenueAtRisk)
	assert.True(t, signal.Impact.Churn)
	assert.True(t, signal.Impact.Escalation)
}

func TestExtract_MistypedMetadataIgnored(t *testing.T) {
	e := NewExtractor(nil)
	signal := e.Extract(newMeeting(
		"MegaStore sync",
		"Dashboard is slow.",
		map[string]interface{}{
			"users_affected": []string{"lots"},
			"churn":          "no",
		},
	))

	assert.Zero(t, signal.Impact.UsersAffected)
	assert.False(t, signal.Impact.Churn)
}

func TestExtract_KeywordsAreNormalizedTokens(t *testing.T) {
	e := NewExtractor(nil)
	signal := e.Extract(newMeeting(
		"MegaStore sync",
		"The Dashboard freezes when they open it",
		nil,
	))

	assert.True(t, signal.Keywords.Contains("dashboard"))
	assert.True(t, signal.Keywords.Contains("freezes"))
	// Stopwords and short tokens are dropped
	assert.False(t, signal.Keywords.Contains("the"))
	assert.False(t, signal.Keywords.Contains("it"))
}

func TestParseRules(t *testing.T) {
	rules := ParseRules("billing:invoice,refund; mobile:crash ;bad-segment")

	require.Len(t, rules, 2)
	assert.Equal(t, "billing", rules[0].Name)
	assert.Equal(t, []string{"invoice", "refund"}, rules[0].Triggers)
	assert.Equal(t, "mobile", rules[1].Name)
}

func TestParseRules_EmptyInputYieldsNoRules(t *testing.T) {
	assert.Empty(t, ParseRules(""))
	assert.Empty(t, ParseRules(";;;"))
}

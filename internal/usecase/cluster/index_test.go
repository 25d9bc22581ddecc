package cluster

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexQuery_ExactMatchAlwaysRetrievable(t *testing.T) {
	ix := NewIndex()
	id := uuid.New()
	ix.Upsert(id, "MegaStore", "performance", []string{"dashboard", "slow"}, time.Now())

	got := ix.Query("MegaStore", "performance", []string{"unrelated"}, 5)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	// Customer and category weights with zero keyword overlap
	assert.InDelta(t, 0.80, got[0].Score, 1e-9)
}

func TestIndexQuery_KeywordOnlyOverlapNotRetrieved(t *testing.T) {
	ix := NewIndex()
	ix.Upsert(uuid.New(), "MegaStore", "performance", []string{"dashboard", "slow"}, time.Now())

	// Shares keywords but neither customer nor category: not a candidate
	got := ix.Query("Acme Corp", "export", []string{"dashboard", "slow"}, 5)
	assert.Empty(t, got)
}

func TestIndexQuery_CategoryOnlyMatchScoresPartial(t *testing.T) {
	ix := NewIndex()
	ix.Upsert(uuid.New(), "MegaStore", "performance", []string{"dashboard"}, time.Now())

	got := ix.Query("Acme Corp", "performance", nil, 5)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.40, got[0].Score, 1e-9)
}

func TestIndexQuery_AnonymousCustomerNeverMatchesByCustomer(t *testing.T) {
	ix := NewIndex()
	ix.Upsert(uuid.New(), "", "performance", nil, time.Now())

	// Two anonymous entries must not gain the customer weight
	got := ix.Query("", "performance", nil, 5)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.40, got[0].Score, 1e-9)
}

func TestIndexQuery_RanksByScoreThenRecency(t *testing.T) {
	ix := NewIndex()
	older := uuid.New()
	newer := uuid.New()
	strongest := uuid.New()

	base := time.Now()
	ix.Upsert(older, "Acme Corp", "performance", nil, base.Add(-time.Hour))
	ix.Upsert(newer, "Globex", "performance", nil, base)
	ix.Upsert(strongest, "MegaStore", "performance", nil, base.Add(-2*time.Hour))

	got := ix.Query("MegaStore", "performance", nil, 5)
	require.Len(t, got, 3)
	assert.Equal(t, strongest, got[0].ID, "customer+category match outranks category-only")
	assert.Equal(t, newer, got[1].ID, "ties broken by most recent update")
	assert.Equal(t, older, got[2].ID)
}

func TestIndexQuery_TruncatesToK(t *testing.T) {
	ix := NewIndex()
	for i := 0; i < 10; i++ {
		ix.Upsert(uuid.New(), "", "performance", nil, time.Now())
	}

	got := ix.Query("", "performance", nil, 3)
	assert.Len(t, got, 3)
}

func TestIndexUpsert_MergesKeywordsAcrossSignals(t *testing.T) {
	ix := NewIndex()
	id := uuid.New()
	ix.Upsert(id, "MegaStore", "performance", []string{"dashboard"}, time.Now())
	ix.Upsert(id, "MegaStore", "performance", []string{"timeout"}, time.Now())

	assert.Equal(t, 1, ix.Len())

	// Full overlap with the merged profile
	got := ix.Query("MegaStore", "performance", []string{"dashboard", "timeout"}, 5)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
}

func TestIndexUpsert_RepostingsOnCategoryChange(t *testing.T) {
	ix := NewIndex()
	id := uuid.New()
	ix.Upsert(id, "MegaStore", "performance", nil, time.Now())
	ix.Upsert(id, "MegaStore", "export", nil, time.Now())

	assert.Empty(t, ix.Query("", "performance", nil, 5))
	assert.Len(t, ix.Query("", "export", nil, 5), 1)
}

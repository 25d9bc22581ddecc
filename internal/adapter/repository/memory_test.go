package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/painpoint-labs/painpoint/internal/domain/entities"
)

func evidenceSignal(customer string) *entities.Signal {
	s := &entities.Signal{
		ID:        uuid.New(),
		MeetingID: uuid.New(),
		Category:  "performance",
		Keywords:  entities.StringSet{"dashboard", "slow", "peak"},
	}
	if customer != "" {
		s.Customer = &customer
	}
	return s
}

func TestAppendEvidence_RederivesFromStoredEvidence(t *testing.T) {
	store := NewMemoryStore()
	repo := NewMemoryOpportunityRepository(store, 0.5)
	ctx := context.Background()

	opp := entities.NewOpportunity(evidenceSignal("Acme Corp"), 0.5)
	require.NoError(t, repo.Create(ctx, opp))

	// Two callers work from the same snapshot, the way two attaches
	// holding different keyed locks can when an anonymous signal clears
	// the threshold on keyword overlap alone
	copy1, err := repo.FindByID(ctx, opp.ID)
	require.NoError(t, err)
	copy2, err := repo.FindByID(ctx, opp.ID)
	require.NoError(t, err)

	named := evidenceSignal("Acme Corp")
	copy1.AppendEvidence(named, 0.5)
	require.NoError(t, repo.AppendEvidence(ctx, copy1, named))

	// copy2 never saw the second signal
	anon := evidenceSignal("")
	copy2.AppendEvidence(anon, 0.5)
	require.NoError(t, repo.AppendEvidence(ctx, copy2, anon))

	stored, err := repo.FindByID(ctx, opp.ID)
	require.NoError(t, err)
	require.Len(t, stored.Evidence, 3)
	assert.Equal(t, 3, stored.EvidenceCount)
	assert.Equal(t, entities.ComputeImpactScore(stored.Evidence, 0.5), stored.ImpactScore)
	// Two Acme Corp reports decay to 1.5, the anonymous one counts in full
	assert.InDelta(t, 2.5, stored.ImpactScore, 0.0001)
}

func TestAppendEvidence_RefreshesCallerCopy(t *testing.T) {
	store := NewMemoryStore()
	repo := NewMemoryOpportunityRepository(store, 0.5)
	ctx := context.Background()

	opp := entities.NewOpportunity(evidenceSignal("Acme Corp"), 0.5)
	require.NoError(t, repo.Create(ctx, opp))

	stale, err := repo.FindByID(ctx, opp.ID)
	require.NoError(t, err)

	mid := evidenceSignal("Globex")
	opp.AppendEvidence(mid, 0.5)
	require.NoError(t, repo.AppendEvidence(ctx, opp, mid))

	last := evidenceSignal("Initech")
	stale.AppendEvidence(last, 0.5)
	require.NoError(t, repo.AppendEvidence(ctx, stale, last))

	assert.Equal(t, 3, stale.EvidenceCount, "caller copy reflects the stored state after the write")
	assert.InDelta(t, 3.0, stale.ImpactScore, 0.0001)
}

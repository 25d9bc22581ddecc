package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/painpoint-labs/painpoint/internal/domain/entities"
	"github.com/painpoint-labs/painpoint/internal/domain/repositories"
)

// MemoryStore is an in-process arena holding all meetings, opportunities,
// signals and themes behind one mutex. It backs the repository interfaces
// when no database is configured and is the store the test suite runs
// against. Entities are copied on the way in and out so callers can never
// mutate stored state directly.
type MemoryStore struct {
	mu            sync.RWMutex
	meetings      map[uuid.UUID]*entities.Meeting
	opportunities map[uuid.UUID]*entities.Opportunity
	evidence      map[uuid.UUID][]*entities.Signal
	themes        map[uuid.UUID]*entities.Theme
	themeByLabel  map[string]uuid.UUID
}

// NewMemoryStore creates an empty arena store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		meetings:      make(map[uuid.UUID]*entities.Meeting),
		opportunities: make(map[uuid.UUID]*entities.Opportunity),
		evidence:      make(map[uuid.UUID][]*entities.Signal),
		themes:        make(map[uuid.UUID]*entities.Theme),
		themeByLabel:  make(map[string]uuid.UUID),
	}
}

func copyMeeting(m *entities.Meeting) *entities.Meeting {
	c := *m
	return &c
}

func copySignal(s *entities.Signal) *entities.Signal {
	c := *s
	c.Categories = append(entities.StringSet{}, s.Categories...)
	c.Keywords = append(entities.StringSet{}, s.Keywords...)
	return &c
}

func copyOpportunity(o *entities.Opportunity) *entities.Opportunity {
	c := *o
	c.Evidence = nil
	return &c
}

func copyTheme(t *entities.Theme) *entities.Theme {
	c := *t
	return &c
}

// memoryMeetingRepository implements MeetingRepository over a MemoryStore
type memoryMeetingRepository struct {
	s *MemoryStore
}

// NewMemoryMeetingRepository creates a meeting repository backed by the store
func NewMemoryMeetingRepository(s *MemoryStore) repositories.MeetingRepository {
	return &memoryMeetingRepository{s: s}
}

func (r *memoryMeetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.meetings[meeting.ID] = copyMeeting(meeting)
	return nil
}

func (r *memoryMeetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.meetings[id]
	if !ok {
		return nil, entities.ErrMeetingNotFound
	}
	return copyMeeting(m), nil
}

func (r *memoryMeetingRepository) UpdateStatus(ctx context.Context, meeting *entities.Meeting) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.meetings[meeting.ID]; !ok {
		return entities.ErrMeetingNotFound
	}
	r.s.meetings[meeting.ID] = copyMeeting(meeting)
	return nil
}

func (r *memoryMeetingRepository) CountPending(ctx context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var count int64
	for _, m := range r.s.meetings {
		if !m.IsTerminal() {
			count++
		}
	}
	return count, nil
}

// memoryOpportunityRepository implements OpportunityRepository over a MemoryStore
type memoryOpportunityRepository struct {
	s     *MemoryStore
	decay float64
}

// NewMemoryOpportunityRepository creates an opportunity repository backed
// by the store. decay is the repeat-customer factor used when rederiving
// the impact score.
func NewMemoryOpportunityRepository(s *MemoryStore, decay float64) repositories.OpportunityRepository {
	return &memoryOpportunityRepository{s: s, decay: decay}
}

func (r *memoryOpportunityRepository) Create(ctx context.Context, opp *entities.Opportunity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := copyOpportunity(opp)
	r.s.opportunities[opp.ID] = stored
	for i := range opp.Evidence {
		r.s.evidence[opp.ID] = append(r.s.evidence[opp.ID], copySignal(&opp.Evidence[i]))
	}
	return nil
}

// AppendEvidence rederives the count and score from the stored evidence
// under the store mutex, so a stale caller copy can never leave the score
// behind the evidence rows.
func (r *memoryOpportunityRepository) AppendEvidence(ctx context.Context, opp *entities.Opportunity, signal *entities.Signal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.opportunities[opp.ID]
	if !ok {
		return entities.ErrOpportunityNotFound
	}
	r.s.evidence[opp.ID] = append(r.s.evidence[opp.ID], copySignal(signal))

	evidence := make([]entities.Signal, 0, len(r.s.evidence[opp.ID]))
	for _, s := range r.s.evidence[opp.ID] {
		evidence = append(evidence, *s)
	}
	stored.EvidenceCount = len(evidence)
	stored.ImpactScore = entities.ComputeImpactScore(evidence, r.decay)
	if stored.Customer == nil {
		stored.Customer = opp.Customer
	}
	stored.UpdatedAt = opp.UpdatedAt

	opp.EvidenceCount = stored.EvidenceCount
	opp.ImpactScore = stored.ImpactScore
	opp.Customer = stored.Customer
	return nil
}

func (r *memoryOpportunityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Opportunity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.opportunities[id]
	if !ok {
		return nil, entities.ErrOpportunityNotFound
	}
	result := copyOpportunity(o)
	for _, s := range r.s.evidence[id] {
		result.Evidence = append(result.Evidence, *copySignal(s))
	}
	return result, nil
}

func (r *memoryOpportunityRepository) List(ctx context.Context, filters repositories.OpportunityFilters) ([]*entities.Opportunity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []*entities.Opportunity
	for _, o := range r.s.opportunities {
		if filters.ThemeID != nil && (o.ThemeID == nil || *o.ThemeID != *filters.ThemeID) {
			continue
		}
		if filters.Category != "" && o.Category != filters.Category {
			continue
		}
		if filters.Since != nil && o.UpdatedAt.Before(*filters.Since) {
			continue
		}
		c := copyOpportunity(o)
		if filters.WithEvidence {
			for _, s := range r.s.evidence[o.ID] {
				c.Evidence = append(c.Evidence, *copySignal(s))
			}
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

func (r *memoryOpportunityRepository) ListAll(ctx context.Context) ([]*entities.Opportunity, error) {
	return r.List(ctx, repositories.OpportunityFilters{})
}

func (r *memoryOpportunityRepository) ListByTheme(ctx context.Context, themeID uuid.UUID, limit int) ([]*entities.Opportunity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []*entities.Opportunity
	for _, o := range r.s.opportunities {
		if o.ThemeID != nil && *o.ThemeID == themeID {
			result = append(result, copyOpportunity(o))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ImpactScore > result[j].ImpactScore
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memoryOpportunityRepository) ListEvidence(ctx context.Context, opportunityID uuid.UUID) ([]*entities.Signal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if _, ok := r.s.opportunities[opportunityID]; !ok {
		return nil, entities.ErrOpportunityNotFound
	}
	result := make([]*entities.Signal, 0, len(r.s.evidence[opportunityID]))
	for _, s := range r.s.evidence[opportunityID] {
		result = append(result, copySignal(s))
	}
	return result, nil
}

func (r *memoryOpportunityRepository) AssignTheme(ctx context.Context, opportunityID uuid.UUID, themeID *uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.opportunities[opportunityID]
	if !ok {
		return entities.ErrOpportunityNotFound
	}
	o.ThemeID = themeID
	o.UpdatedAt = time.Now()
	return nil
}

// memoryThemeRepository implements ThemeRepository over a MemoryStore
type memoryThemeRepository struct {
	s *MemoryStore
}

// NewMemoryThemeRepository creates a theme repository backed by the store
func NewMemoryThemeRepository(s *MemoryStore) repositories.ThemeRepository {
	return &memoryThemeRepository{s: s}
}

func (r *memoryThemeRepository) Create(ctx context.Context, theme *entities.Theme) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.themeByLabel[theme.Label]; exists {
		return entities.ErrConflict
	}
	r.s.themes[theme.ID] = copyTheme(theme)
	r.s.themeByLabel[theme.Label] = theme.ID
	return nil
}

func (r *memoryThemeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Theme, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.themes[id]
	if !ok {
		return nil, entities.ErrThemeNotFound
	}
	return copyTheme(t), nil
}

func (r *memoryThemeRepository) FindByLabel(ctx context.Context, label string) (*entities.Theme, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.themeByLabel[entities.NormalizeThemeLabel(label)]
	if !ok {
		return nil, entities.ErrThemeNotFound
	}
	return copyTheme(r.s.themes[id]), nil
}

func (r *memoryThemeRepository) ListAll(ctx context.Context) ([]*entities.Theme, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	result := make([]*entities.Theme, 0, len(r.s.themes))
	for _, t := range r.s.themes {
		result = append(result, copyTheme(t))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TotalImpact > result[j].TotalImpact
	})
	return result, nil
}

func (r *memoryThemeRepository) ListActiveSince(ctx context.Context, cutoff time.Time) ([]*entities.Theme, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var result []*entities.Theme
	for _, t := range r.s.themes {
		if t.UpdatedAt.After(cutoff) {
			result = append(result, copyTheme(t))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].OpportunityCount > result[j].OpportunityCount
	})
	return result, nil
}

func (r *memoryThemeRepository) Update(ctx context.Context, theme *entities.Theme) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.themes[theme.ID]; !ok {
		return entities.ErrThemeNotFound
	}
	r.s.themes[theme.ID] = copyTheme(theme)
	return nil
}

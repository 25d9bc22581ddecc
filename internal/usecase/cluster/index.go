package cluster

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/painpoint-labs/painpoint/internal/domain/entities"
)

// Similarity weights. Customer and category dominate so that two
// reports from the same account about the same problem class always
// clear the attach threshold, while keyword overlap alone never can.
const (
	weightCustomer = 0.40
	weightCategory = 0.40
	weightKeywords = 0.20
)

// Candidate is one ranked result of an index query
type Candidate struct {
	ID        uuid.UUID
	Score     float64
	UpdatedAt time.Time
}

// indexEntry is the searchable profile of one opportunity: its
// representative customer/category plus the union of evidence keywords
type indexEntry struct {
	id        uuid.UUID
	customer  string
	category  string
	keywords  map[string]struct{}
	updatedAt time.Time
}

// Index is an in-memory inverted index over opportunities, with posting
// lists keyed by customer and by category. Inserts are O(1) amortized;
// queries only score the union of the two posting lists, which keeps
// exact customer+category matches always retrievable (no false
// negatives) without scanning unrelated entries.
type Index struct {
	mu         sync.RWMutex
	entries    map[uuid.UUID]*indexEntry
	byCustomer map[string]map[uuid.UUID]struct{}
	byCategory map[string]map[uuid.UUID]struct{}
}

// NewIndex creates an empty similarity index
func NewIndex() *Index {
	return &Index{
		entries:    make(map[uuid.UUID]*indexEntry),
		byCustomer: make(map[string]map[uuid.UUID]struct{}),
		byCategory: make(map[string]map[uuid.UUID]struct{}),
	}
}

// Upsert inserts or refreshes an opportunity's profile. New keywords are
// merged into the existing profile so the entry reflects the whole
// evidence sequence, not just the latest signal.
func (ix *Index) Upsert(id uuid.UUID, customer, category string, keywords []string, updatedAt time.Time) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	e, exists := ix.entries[id]
	if !exists {
		e = &indexEntry{id: id, keywords: make(map[string]struct{})}
		ix.entries[id] = e
	} else {
		if e.customer != customer {
			ix.removePosting(ix.byCustomer, e.customer, id)
		}
		if e.category != category {
			ix.removePosting(ix.byCategory, e.category, id)
		}
	}

	e.customer = customer
	e.category = category
	e.updatedAt = updatedAt
	for _, kw := range keywords {
		e.keywords[kw] = struct{}{}
	}

	ix.addPosting(ix.byCustomer, customer, id)
	ix.addPosting(ix.byCategory, category, id)
}

// Query returns up to k candidates ranked by similarity to the given
// features, ties broken by most recently updated first.
func (ix *Index) Query(customer, category string, keywords []string, k int) []Candidate {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	if customer != "" {
		for id := range ix.byCustomer[customer] {
			seen[id] = struct{}{}
		}
	}
	for id := range ix.byCategory[category] {
		seen[id] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}

	kwSet := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kwSet[kw] = struct{}{}
	}

	candidates := make([]Candidate, 0, len(seen))
	for id := range seen {
		e := ix.entries[id]
		var score float64
		if customer != "" && e.customer == customer {
			score += weightCustomer
		}
		if e.category == category {
			score += weightCategory
		}
		score += weightKeywords * jaccard(kwSet, e.keywords)
		candidates = append(candidates, Candidate{ID: id, Score: score, UpdatedAt: e.updatedAt})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
	})

	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// Len returns the number of indexed opportunities
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Load seeds the index from existing opportunities, used on startup to
// rebuild the searchable state from the durable store
func (ix *Index) Load(opps []*entities.Opportunity) {
	for _, o := range opps {
		var keywords []string
		for _, s := range o.Evidence {
			keywords = append(keywords, s.Keywords...)
		}
		ix.Upsert(o.ID, o.CustomerName(), o.Category, keywords, o.UpdatedAt)
	}
}

func (ix *Index) addPosting(postings map[string]map[uuid.UUID]struct{}, key string, id uuid.UUID) {
	if key == "" {
		return
	}
	if postings[key] == nil {
		postings[key] = make(map[uuid.UUID]struct{})
	}
	postings[key][id] = struct{}{}
}

func (ix *Index) removePosting(postings map[string]map[uuid.UUID]struct{}, key string, id uuid.UUID) {
	if key == "" {
		return
	}
	if list, ok := postings[key]; ok {
		delete(list, id)
		if len(list) == 0 {
			delete(postings, key)
		}
	}
}

func jaccard(a map[string]struct{}, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	var intersection int
	for t := range small {
		if _, ok := large[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

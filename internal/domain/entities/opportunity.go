package entities

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Opportunity is a cluster of signals believed to describe the same
// underlying customer problem. Evidence is append-only; the impact score
// is always recomputable from the evidence alone.
type Opportunity struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Category      string     `gorm:"type:varchar(100);not null;index" json:"category"`
	Customer      *string    `gorm:"type:varchar(255);index" json:"customer,omitempty"`
	ThemeID       *uuid.UUID `gorm:"type:uuid;index" json:"theme_id,omitempty"`
	Evidence      []Signal   `gorm:"foreignKey:OpportunityID" json:"evidence,omitempty"`
	EvidenceCount int        `gorm:"not null;default:0" json:"evidence_count"`
	ImpactScore   float64    `gorm:"not null;default:0" json:"impact_score"`
	CreatedAt     time.Time  `gorm:"default:now();index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"default:now();index" json:"updated_at"`
}

// TableName specifies the table name for Opportunity
func (Opportunity) TableName() string {
	return "opportunities"
}

// NewOpportunity seeds a fresh opportunity from its first signal
func NewOpportunity(seed *Signal, decay float64) *Opportunity {
	now := time.Now()
	opp := &Opportunity{
		ID:        uuid.New(),
		Category:  seed.Category,
		Customer:  seed.Customer,
		CreatedAt: now,
		UpdatedAt: now,
	}
	opp.AppendEvidence(seed, decay)
	return opp
}

// CustomerName returns the representative customer or "" for
// cross-customer opportunities
func (o *Opportunity) CustomerName() string {
	if o.Customer == nil {
		return ""
	}
	return *o.Customer
}

// AppendEvidence adds a signal to the evidence sequence and refreshes
// the derived fields. The score is recomputed from the full sequence so
// the stored value can never drift from ComputeImpactScore.
func (o *Opportunity) AppendEvidence(s *Signal, decay float64) {
	s.OpportunityID = o.ID
	o.Evidence = append(o.Evidence, *s)
	o.EvidenceCount = len(o.Evidence)
	o.ImpactScore = ComputeImpactScore(o.Evidence, decay)
	if o.Customer == nil && s.Customer != nil {
		o.Customer = s.Customer
	}
	o.UpdatedAt = time.Now()
}

// DominantCategory returns the most frequent primary category across the
// evidence. Ties resolve to the earliest-seen category so the result is
// stable for a given evidence sequence.
func (o *Opportunity) DominantCategory() string {
	if len(o.Evidence) == 0 {
		return o.Category
	}
	counts := make(map[string]int, len(o.Evidence))
	order := make([]string, 0, len(o.Evidence))
	for _, s := range o.Evidence {
		if _, seen := counts[s.Category]; !seen {
			order = append(order, s.Category)
		}
		counts[s.Category]++
	}
	best := order[0]
	for _, c := range order[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}

// ComputeImpactScore derives the rolling impact score from an evidence
// sequence. The score is a pure function of the evidence multiset:
// contributions are grouped by customer, sorted descending, and weighted
// by decay^k so repeated reports from one customer see diminishing
// returns. Reordering the evidence never changes the result, and
// appending evidence never decreases it.
func ComputeImpactScore(evidence []Signal, decay float64) float64 {
	if decay <= 0 || decay > 1 {
		decay = 0.5
	}
	byCustomer := make(map[string][]float64)
	for _, s := range evidence {
		key := s.CustomerName()
		byCustomer[key] = append(byCustomer[key], s.baseImpact())
	}

	var total float64
	for customer, contributions := range byCustomer {
		sort.Sort(sort.Reverse(sort.Float64Slice(contributions)))
		if customer == "" {
			// Anonymous signals cannot be attributed to a repeat
			// reporter, so each counts at full weight.
			for _, c := range contributions {
				total += c
			}
			continue
		}
		weight := 1.0
		for _, c := range contributions {
			total += c * weight
			weight *= decay
		}
	}
	return math.Round(total*1000) / 1000
}

func log10p1(v float64) float64 {
	return math.Log10(1 + v)
}

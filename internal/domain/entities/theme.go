package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Theme groups opportunities that share a broad problem category across
// customers. Membership is many-to-one: an opportunity belongs to at
// most one theme at any instant.
type Theme struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Label            string    `gorm:"type:varchar(100);unique;not null" json:"label"`
	OpportunityCount int       `gorm:"not null;default:0" json:"opportunity_count"`
	TotalImpact      float64   `gorm:"not null;default:0" json:"total_impact"`
	MaxImpact        float64   `gorm:"not null;default:0" json:"max_impact"`
	CreatedAt        time.Time `gorm:"default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for Theme
func (Theme) TableName() string {
	return "themes"
}

// NewTheme creates an empty theme for a category label
func NewTheme(label string) *Theme {
	now := time.Now()
	return &Theme{
		ID:        uuid.New(),
		Label:     NormalizeThemeLabel(label),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeThemeLabel lowercases a label and replaces spaces with dashes
// so "Performance Issues" and "performance-issues" land in one theme.
func NormalizeThemeLabel(label string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(label), " ", "-"))
}

// Recalculate refreshes the aggregate metrics from member opportunities
func (t *Theme) Recalculate(members []*Opportunity) {
	t.OpportunityCount = len(members)
	t.TotalImpact = 0
	t.MaxImpact = 0
	for _, o := range members {
		t.TotalImpact += o.ImpactScore
		if o.ImpactScore > t.MaxImpact {
			t.MaxImpact = o.ImpactScore
		}
	}
	t.UpdatedAt = time.Now()
}

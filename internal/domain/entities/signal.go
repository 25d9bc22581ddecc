package entities

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CategoryUnclassified is the bucket for signals no rule matched
const CategoryUnclassified = "uncategorized"

// ImpactMarkers holds the quantitative facts read from meeting metadata.
// All fields are best-effort: missing or mistyped metadata leaves the
// zero value rather than failing extraction.
type ImpactMarkers struct {
	UsersAffected int     `json:"users_affected,omitempty"`
	RevenueAtRisk float64 `json:"revenue_at_risk,omitempty"`
	Churn         bool    `json:"churn,omitempty"`
	Escalation    bool    `json:"escalation,omitempty"`
}

// Scan implements sql.Scanner interface for GORM
func (m *ImpactMarkers) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, &m)
}

// Value implements driver.Valuer interface for GORM
func (m ImpactMarkers) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// StringSet is a jsonb-backed slice of normalized tokens
type StringSet []string

// Scan implements sql.Scanner interface for GORM
func (s *StringSet) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, &s)
}

// Value implements driver.Valuer interface for GORM
func (s StringSet) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Contains reports whether the set holds the given token
func (s StringSet) Contains(token string) bool {
	for _, t := range s {
		if t == token {
			return true
		}
	}
	return false
}

// Signal is the normalized extraction from one meeting. Signals are
// immutable once created: they are appended to an opportunity's evidence
// sequence and never reassigned or edited afterwards.
type Signal struct {
	ID            uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	MeetingID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"meeting_id"`
	OpportunityID uuid.UUID     `gorm:"type:uuid;not null;index" json:"opportunity_id"`
	Customer      *string       `gorm:"type:varchar(255);index" json:"customer,omitempty"`
	Category      string        `gorm:"type:varchar(100);not null;index" json:"category"`
	Categories    StringSet     `gorm:"type:jsonb;default:'[]'" json:"categories"`
	Keywords      StringSet     `gorm:"type:jsonb;default:'[]'" json:"keywords"`
	Impact        ImpactMarkers `gorm:"type:jsonb;serializer:json" json:"impact"`
	ObservedAt    time.Time     `gorm:"not null;index" json:"observed_at"`
	CreatedAt     time.Time     `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for Signal
func (Signal) TableName() string {
	return "signals"
}

// CustomerName returns the customer identity or "" when none was inferred
func (s *Signal) CustomerName() string {
	if s.Customer == nil {
		return ""
	}
	return *s.Customer
}

// Unclassified checks if no category rule matched this signal
func (s *Signal) Unclassified() bool {
	return s.Category == CategoryUnclassified
}

// baseImpact is the per-signal contribution before repeat-customer decay.
// Flags and magnitudes stack so a churn-flagged escalation from a large
// account outweighs a bare report.
func (s *Signal) baseImpact() float64 {
	score := 1.0
	if s.Impact.Churn {
		score += 0.75
	}
	if s.Impact.Escalation {
		score += 0.5
	}
	if s.Impact.UsersAffected > 0 {
		score += 0.2 * log10p1(float64(s.Impact.UsersAffected))
	}
	if s.Impact.RevenueAtRisk > 0 {
		score += 0.1 * log10p1(s.Impact.RevenueAtRisk)
	}
	return score
}

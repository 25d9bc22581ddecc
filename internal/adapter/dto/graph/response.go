package graph

import "time"

// SignalResponse is one piece of evidence inside an opportunity
type SignalResponse struct {
	SignalID   string    `json:"signal_id"`
	MeetingID  string    `json:"meeting_id"`
	Customer   *string   `json:"customer,omitempty"`
	Category   string    `json:"category"`
	Keywords   []string  `json:"keywords,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// OpportunityResponse is one clustered opportunity
type OpportunityResponse struct {
	OpportunityID string           `json:"opportunity_id"`
	Category      string           `json:"category"`
	Customer      *string          `json:"customer,omitempty"`
	ThemeID       *string          `json:"theme_id,omitempty"`
	EvidenceCount int              `json:"evidence_count"`
	ImpactScore   float64          `json:"impact_score"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Evidence      []SignalResponse `json:"evidence,omitempty"`
}

// ThemeResponse is one theme with its rolled-up metrics
type ThemeResponse struct {
	ThemeID          string    `json:"theme_id"`
	Label            string    `json:"label"`
	OpportunityCount int       `json:"opportunity_count"`
	TotalImpact      float64   `json:"total_impact"`
	MaxImpact        float64   `json:"max_impact"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ThemeNode is one theme with its member opportunities in the full graph
type ThemeNode struct {
	Theme         ThemeResponse         `json:"theme"`
	Opportunities []OpportunityResponse `json:"opportunities"`
}

// GraphResponse is the full derived tree: themes, their opportunities,
// plus opportunities not yet assigned to any theme
type GraphResponse struct {
	Themes     []ThemeNode           `json:"themes"`
	Unassigned []OpportunityResponse `json:"unassigned,omitempty"`
	Generated  time.Time             `json:"generated_at"`
}

package presenter

import (
	"github.com/painpoint-labs/painpoint/internal/adapter/dto/graph"
	"github.com/painpoint-labs/painpoint/internal/adapter/dto/meeting"
	"github.com/painpoint-labs/painpoint/internal/domain/entities"
)

// ToMeetingStatusResponse converts a Meeting entity to its status DTO
func ToMeetingStatusResponse(m *entities.Meeting) *meeting.StatusResponse {
	if m == nil {
		return nil
	}
	return &meeting.StatusResponse{
		MeetingID:       m.ID.String(),
		Title:           m.Title,
		Source:          string(m.Source),
		Status:          string(m.Status),
		ProcessingError: m.ProcessingError,
		CreatedAt:       m.CreatedAt,
		ProcessedAt:     m.ProcessedAt,
	}
}

// ToSignalResponse converts a Signal entity to its DTO
func ToSignalResponse(s *entities.Signal) graph.SignalResponse {
	return graph.SignalResponse{
		SignalID:   s.ID.String(),
		MeetingID:  s.MeetingID.String(),
		Customer:   s.Customer,
		Category:   s.Category,
		Keywords:   s.Keywords,
		ObservedAt: s.ObservedAt,
	}
}

// ToOpportunityResponse converts an Opportunity entity to its DTO.
// Evidence is included only when loaded on the entity.
func ToOpportunityResponse(o *entities.Opportunity) *graph.OpportunityResponse {
	if o == nil {
		return nil
	}

	resp := &graph.OpportunityResponse{
		OpportunityID: o.ID.String(),
		Category:      o.Category,
		Customer:      o.Customer,
		EvidenceCount: o.EvidenceCount,
		ImpactScore:   o.ImpactScore,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.ThemeID != nil {
		id := o.ThemeID.String()
		resp.ThemeID = &id
	}
	for i := range o.Evidence {
		resp.Evidence = append(resp.Evidence, ToSignalResponse(&o.Evidence[i]))
	}
	return resp
}

// ToOpportunityListResponse converts a slice of opportunities
func ToOpportunityListResponse(opps []*entities.Opportunity) []*graph.OpportunityResponse {
	out := make([]*graph.OpportunityResponse, len(opps))
	for i, o := range opps {
		out[i] = ToOpportunityResponse(o)
	}
	return out
}

// ToThemeResponse converts a Theme entity to its DTO
func ToThemeResponse(t *entities.Theme) *graph.ThemeResponse {
	if t == nil {
		return nil
	}
	return &graph.ThemeResponse{
		ThemeID:          t.ID.String(),
		Label:            t.Label,
		OpportunityCount: t.OpportunityCount,
		TotalImpact:      t.TotalImpact,
		MaxImpact:        t.MaxImpact,
		UpdatedAt:        t.UpdatedAt,
	}
}

// ToThemeListResponse converts a slice of themes
func ToThemeListResponse(themes []*entities.Theme) []*graph.ThemeResponse {
	out := make([]*graph.ThemeResponse, len(themes))
	for i, t := range themes {
		out[i] = ToThemeResponse(t)
	}
	return out
}

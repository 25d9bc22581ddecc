package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/painpoint-labs/painpoint/internal/domain/entities"
)

// OpportunityFilters represents filter options for listing opportunities
type OpportunityFilters struct {
	ThemeID      *uuid.UUID
	Category     string
	Since        *time.Time
	Limit        int
	WithEvidence bool
}

// OpportunityRepository defines the interface for opportunity data access.
// Signals are only ever persisted together with the opportunity they
// attach to, so a stored signal can never be left without a cluster.
type OpportunityRepository interface {
	// Create persists a new opportunity together with its seed evidence
	// in a single transaction
	Create(ctx context.Context, opp *entities.Opportunity) error

	// AppendEvidence persists a new signal and rederives the
	// opportunity's count and impact score from the stored evidence in
	// a single transaction, refreshing the passed struct in place
	AppendEvidence(ctx context.Context, opp *entities.Opportunity, signal *entities.Signal) error

	// FindByID retrieves an opportunity with its evidence sequence in
	// arrival order
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Opportunity, error)

	// List retrieves opportunities matching the filters, most recently
	// updated first
	List(ctx context.Context, filters OpportunityFilters) ([]*entities.Opportunity, error)

	// ListAll retrieves every opportunity without evidence. Used to
	// rebuild the similarity index on startup.
	ListAll(ctx context.Context) ([]*entities.Opportunity, error)

	// ListByTheme retrieves a theme's members ordered by impact score
	// descending
	ListByTheme(ctx context.Context, themeID uuid.UUID, limit int) ([]*entities.Opportunity, error)

	// ListEvidence retrieves the evidence sequence for an opportunity in
	// arrival order
	ListEvidence(ctx context.Context, opportunityID uuid.UUID) ([]*entities.Signal, error)

	// AssignTheme moves an opportunity into a theme (nil detaches).
	// An opportunity is a member of at most one theme at any instant.
	AssignTheme(ctx context.Context, opportunityID uuid.UUID, themeID *uuid.UUID) error
}

package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/painpoint-labs/painpoint/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	// Create persists a newly accepted meeting. The ingestion
	// acknowledgment must not be issued before this returns nil.
	Create(ctx context.Context, meeting *entities.Meeting) error

	// FindByID retrieves a meeting by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// UpdateStatus updates the processing status and error message
	UpdateStatus(ctx context.Context, meeting *entities.Meeting) error

	// CountPending returns the number of meetings not yet in a terminal state
	CountPending(ctx context.Context) (int64, error)
}

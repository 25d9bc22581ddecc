package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/painpoint-labs/painpoint/internal/domain/entities"
)

// ThemeRepository defines the interface for theme data access
type ThemeRepository interface {
	// Create persists a new theme
	Create(ctx context.Context, theme *entities.Theme) error

	// FindByID retrieves a theme by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Theme, error)

	// FindByLabel retrieves a theme by its normalized label
	FindByLabel(ctx context.Context, label string) (*entities.Theme, error)

	// ListAll retrieves all themes ordered by total impact descending
	ListAll(ctx context.Context) ([]*entities.Theme, error)

	// ListActiveSince retrieves themes whose members gained evidence
	// after the cutoff, ordered by member count descending
	ListActiveSince(ctx context.Context, cutoff time.Time) ([]*entities.Theme, error)

	// Update persists refreshed aggregate metrics
	Update(ctx context.Context, theme *entities.Theme) error
}

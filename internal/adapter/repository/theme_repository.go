package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/painpoint-labs/painpoint/internal/domain/entities"
	"github.com/painpoint-labs/painpoint/internal/domain/repositories"
)

// themeRepository implements the ThemeRepository interface
type themeRepository struct {
	db *gorm.DB
}

// NewThemeRepository creates a new theme repository
func NewThemeRepository(db *gorm.DB) repositories.ThemeRepository {
	return &themeRepository{db: db}
}

// Create persists a new theme
func (r *themeRepository) Create(ctx context.Context, theme *entities.Theme) error {
	err := r.db.WithContext(ctx).Create(theme).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return entities.ErrConflict
	}
	return err
}

// FindByID retrieves a theme by its ID
func (r *themeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Theme, error) {
	var theme entities.Theme
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&theme).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrThemeNotFound
		}
		return nil, err
	}
	return &theme, nil
}

// FindByLabel retrieves a theme by its normalized label
func (r *themeRepository) FindByLabel(ctx context.Context, label string) (*entities.Theme, error) {
	var theme entities.Theme
	err := r.db.WithContext(ctx).
		Where("label = ?", entities.NormalizeThemeLabel(label)).
		First(&theme).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrThemeNotFound
		}
		return nil, err
	}
	return &theme, nil
}

// ListAll retrieves all themes ordered by total impact descending
func (r *themeRepository) ListAll(ctx context.Context) ([]*entities.Theme, error) {
	var themes []*entities.Theme
	err := r.db.WithContext(ctx).
		Order("total_impact DESC").
		Find(&themes).Error
	return themes, err
}

// ListActiveSince retrieves themes updated after the cutoff
func (r *themeRepository) ListActiveSince(ctx context.Context, cutoff time.Time) ([]*entities.Theme, error) {
	var themes []*entities.Theme
	err := r.db.WithContext(ctx).
		Where("updated_at > ?", cutoff).
		Order("opportunity_count DESC").
		Find(&themes).Error
	return themes, err
}

// Update persists refreshed aggregate metrics
func (r *themeRepository) Update(ctx context.Context, theme *entities.Theme) error {
	return r.db.WithContext(ctx).Save(theme).Error
}

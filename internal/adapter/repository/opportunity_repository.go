package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/painpoint-labs/painpoint/internal/domain/entities"
	"github.com/painpoint-labs/painpoint/internal/domain/repositories"
)

// opportunityRepository implements the OpportunityRepository interface
type opportunityRepository struct {
	db    *gorm.DB
	decay float64
}

// NewOpportunityRepository creates a new opportunity repository. decay is
// the repeat-customer factor used when rederiving the impact score.
func NewOpportunityRepository(db *gorm.DB, decay float64) repositories.OpportunityRepository {
	return &opportunityRepository{db: db, decay: decay}
}

// Create persists a new opportunity together with its seed evidence.
// GORM cascades the Evidence association inside one transaction, so a
// signal row can never exist without its opportunity.
func (r *opportunityRepository) Create(ctx context.Context, opp *entities.Opportunity) error {
	return r.db.WithContext(ctx).Create(opp).Error
}

// AppendEvidence persists a new signal and rederives the opportunity's
// count and score from the stored evidence, all in one transaction. The
// opportunity row is locked first: an attach can slip past the clusterer's
// keyed mutex when an anonymous signal clears the threshold on keyword
// overlap, and the rederivation keeps the score consistent with the
// evidence rows even then. The caller's struct is refreshed in place.
func (r *opportunityRepository) AppendEvidence(ctx context.Context, opp *entities.Opportunity, signal *entities.Signal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked entities.Opportunity
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", opp.ID).
			First(&locked).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return entities.ErrOpportunityNotFound
			}
			return err
		}

		if err := tx.Create(signal).Error; err != nil {
			return err
		}

		var evidence []entities.Signal
		if err := tx.Where("opportunity_id = ?", opp.ID).
			Order("created_at ASC").
			Find(&evidence).Error; err != nil {
			return err
		}

		customer := locked.Customer
		if customer == nil {
			customer = opp.Customer
		}
		opp.EvidenceCount = len(evidence)
		opp.ImpactScore = entities.ComputeImpactScore(evidence, r.decay)
		opp.Customer = customer

		return tx.Model(&entities.Opportunity{}).
			Where("id = ?", opp.ID).
			Updates(map[string]interface{}{
				"evidence_count": opp.EvidenceCount,
				"impact_score":   opp.ImpactScore,
				"customer":       opp.Customer,
				"updated_at":     opp.UpdatedAt,
			}).
			Error
	})
}

// FindByID retrieves an opportunity with its evidence in arrival order
func (r *opportunityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Opportunity, error) {
	var opp entities.Opportunity
	err := r.db.WithContext(ctx).
		Preload("Evidence", func(db *gorm.DB) *gorm.DB {
			return db.Order("signals.created_at ASC")
		}).
		Where("id = ?", id).
		First(&opp).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrOpportunityNotFound
		}
		return nil, err
	}
	return &opp, nil
}

// List retrieves opportunities matching the filters, most recently updated first
func (r *opportunityRepository) List(ctx context.Context, filters repositories.OpportunityFilters) ([]*entities.Opportunity, error) {
	var opps []*entities.Opportunity
	query := r.db.WithContext(ctx).Model(&entities.Opportunity{})

	if filters.WithEvidence {
		query = query.Preload("Evidence", func(db *gorm.DB) *gorm.DB {
			return db.Order("signals.created_at ASC")
		})
	}
	if filters.ThemeID != nil {
		query = query.Where("theme_id = ?", *filters.ThemeID)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Since != nil {
		query = query.Where("updated_at >= ?", *filters.Since)
	}

	query = query.Order("updated_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}

	err := query.Find(&opps).Error
	return opps, err
}

// ListAll retrieves every opportunity without evidence
func (r *opportunityRepository) ListAll(ctx context.Context) ([]*entities.Opportunity, error) {
	var opps []*entities.Opportunity
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Find(&opps).Error
	return opps, err
}

// ListByTheme retrieves a theme's members ordered by impact score descending
func (r *opportunityRepository) ListByTheme(ctx context.Context, themeID uuid.UUID, limit int) ([]*entities.Opportunity, error) {
	var opps []*entities.Opportunity
	query := r.db.WithContext(ctx).
		Where("theme_id = ?", themeID).
		Order("impact_score DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&opps).Error
	return opps, err
}

// ListEvidence retrieves the evidence sequence in arrival order
func (r *opportunityRepository) ListEvidence(ctx context.Context, opportunityID uuid.UUID) ([]*entities.Signal, error) {
	var signals []*entities.Signal
	err := r.db.WithContext(ctx).
		Where("opportunity_id = ?", opportunityID).
		Order("created_at ASC").
		Find(&signals).Error
	return signals, err
}

// AssignTheme moves an opportunity into a theme (nil detaches)
func (r *opportunityRepository) AssignTheme(ctx context.Context, opportunityID uuid.UUID, themeID *uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entities.Opportunity{}).
		Where("id = ?", opportunityID).
		Updates(map[string]interface{}{
			"theme_id":   themeID,
			"updated_at": gorm.Expr("NOW()"),
		}).
		Error
}

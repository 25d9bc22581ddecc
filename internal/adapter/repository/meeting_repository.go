package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/painpoint-labs/painpoint/internal/domain/entities"
	"github.com/painpoint-labs/painpoint/internal/domain/repositories"
)

// meetingRepository implements the MeetingRepository interface
type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) repositories.MeetingRepository {
	return &meetingRepository{db: db}
}

// Create persists a newly accepted meeting
func (r *meetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	return r.db.WithContext(ctx).Create(meeting).Error
}

// FindByID retrieves a meeting by its ID
func (r *meetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&meeting).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrMeetingNotFound
		}
		return nil, err
	}
	return &meeting, nil
}

// UpdateStatus updates the processing status and error message
func (r *meetingRepository) UpdateStatus(ctx context.Context, meeting *entities.Meeting) error {
	return r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", meeting.ID).
		Updates(map[string]interface{}{
			"status":           meeting.Status,
			"processing_error": meeting.ProcessingError,
			"processed_at":     meeting.ProcessedAt,
			"updated_at":       meeting.UpdatedAt,
		}).
		Error
}

// CountPending returns the number of meetings not yet in a terminal state
func (r *meetingRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("status NOT IN ?", []entities.MeetingStatus{entities.MeetingStatusDone, entities.MeetingStatusFailed}).
		Count(&count).Error
	return count, err
}

package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeetingSource represents where the raw notes came from
type MeetingSource string

const (
	MeetingSourceManual MeetingSource = "manual"
	MeetingSourceNotion MeetingSource = "notion"
	MeetingSourceFile   MeetingSource = "file"
	MeetingSourceUpload MeetingSource = "upload"
)

// MeetingStatus represents the processing state of a meeting
type MeetingStatus string

const (
	MeetingStatusQueued     MeetingStatus = "queued"     // Accepted, waiting for a worker
	MeetingStatusProcessing MeetingStatus = "processing" // Being extracted and clustered
	MeetingStatusDone       MeetingStatus = "done"       // Signal attached to an opportunity
	MeetingStatusFailed     MeetingStatus = "failed"     // Pipeline failed, error recorded
)

// Meeting represents one raw customer interaction record.
// It is consumed once by the extraction pipeline; only the derived
// Signal carries its content forward.
type Meeting struct {
	ID              uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title           string            `gorm:"type:varchar(255);not null" json:"title"`
	Notes           string            `gorm:"type:text;not null" json:"notes"`
	Source          MeetingSource     `gorm:"type:varchar(20);not null;default:'manual';index" json:"source"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb;default:'{}'" json:"metadata,omitempty"`
	Status          MeetingStatus     `gorm:"type:varchar(20);not null;default:'queued';index" json:"status"`
	ProcessingError *string           `gorm:"type:text" json:"processing_error,omitempty"`
	ProcessedAt     *time.Time        `json:"processed_at,omitempty"`
	CreatedAt       time.Time         `gorm:"default:now()" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for Meeting
func (Meeting) TableName() string {
	return "meetings"
}

// NewMeeting creates a meeting in the queued state
func NewMeeting(title, notes string, source MeetingSource, metadata map[string]interface{}) *Meeting {
	if source == "" {
		source = MeetingSourceManual
	}
	now := time.Now()
	return &Meeting{
		ID:        uuid.New(),
		Title:     strings.TrimSpace(title),
		Notes:     notes,
		Source:    source,
		Metadata:  datatypes.JSONMap(metadata),
		Status:    MeetingStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal checks if processing has finished for this meeting
func (m *Meeting) IsTerminal() bool {
	return m.Status == MeetingStatusDone || m.Status == MeetingStatusFailed
}

// MarkProcessing marks the meeting as picked up by a worker
func (m *Meeting) MarkProcessing() {
	m.Status = MeetingStatusProcessing
	m.UpdatedAt = time.Now()
}

// MarkDone marks the meeting as fully processed
func (m *Meeting) MarkDone() {
	now := time.Now()
	m.Status = MeetingStatusDone
	m.ProcessingError = nil
	m.ProcessedAt = &now
	m.UpdatedAt = now
}

// MarkFailed marks the meeting as failed with a truncated error message
func (m *Meeting) MarkFailed(reason string) {
	if len(reason) > 200 {
		reason = reason[:197] + "..."
	}
	m.Status = MeetingStatusFailed
	m.ProcessingError = &reason
	m.UpdatedAt = time.Now()
}

// ValidSource checks whether the source tag is one of the recognized values
func ValidSource(s MeetingSource) bool {
	switch s {
	case MeetingSourceManual, MeetingSourceNotion, MeetingSourceFile, MeetingSourceUpload:
		return true
	}
	return false
}

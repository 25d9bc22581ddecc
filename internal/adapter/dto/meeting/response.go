package meeting

import "time"

// CreateMeetingResponse acknowledges an accepted meeting
type CreateMeetingResponse struct {
	MeetingID string `json:"meeting_id"`
	Status    string `json:"status"`
}

// StatusResponse reports the processing state of one meeting
type StatusResponse struct {
	MeetingID       string     `json:"meeting_id"`
	Title           string     `json:"title"`
	Source          string     `json:"source"`
	Status          string     `json:"status"`
	ProcessingError *string    `json:"processing_error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
}

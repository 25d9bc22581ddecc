package entities

import "errors"

// Domain errors
var (
	// Meeting errors
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrEmptyMeeting    = errors.New("meeting has no title and no notes")
	ErrInvalidSource   = errors.New("invalid meeting source")

	// Opportunity errors
	ErrOpportunityNotFound = errors.New("opportunity not found")

	// Theme errors
	ErrThemeNotFound = errors.New("theme not found")

	// Storage errors
	ErrConflict = errors.New("concurrent modification conflict")
)

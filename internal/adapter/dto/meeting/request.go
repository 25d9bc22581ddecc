package meeting

// CreateMeetingRequest is the payload for submitting raw meeting notes.
// Notes may be omitted for file and upload sources, which reference an
// object key in metadata instead.
type CreateMeetingRequest struct {
	Title    string                 `json:"title" validate:"required,min=3,max=100"`
	Notes    string                 `json:"notes" validate:"omitempty,min=10,max=10000"`
	Source   string                 `json:"source" validate:"omitempty,oneof=manual notion file upload"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

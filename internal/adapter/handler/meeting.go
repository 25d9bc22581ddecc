package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "github.com/painpoint-labs/painpoint/errors"
	"github.com/painpoint-labs/painpoint/internal/adapter/dto/meeting"
	"github.com/painpoint-labs/painpoint/internal/adapter/presenter"
	"github.com/painpoint-labs/painpoint/internal/domain/entities"
	"github.com/painpoint-labs/painpoint/internal/domain/repositories"
	"github.com/painpoint-labs/painpoint/internal/usecase/ingest"
)

// Meeting handles meeting ingestion and status requests
type Meeting struct {
	coordinator *ingest.Coordinator
	meetings    repositories.MeetingRepository
	logger      *zap.Logger
}

// NewMeetingHandler creates a new meeting handler
func NewMeetingHandler(coordinator *ingest.Coordinator, meetings repositories.MeetingRepository, logger *zap.Logger) *Meeting {
	return &Meeting{
		coordinator: coordinator,
		meetings:    meetings,
		logger:      logger,
	}
}

// CreateMeeting handles POST /v1/meetings. The meeting is persisted
// before the 202 acknowledgment and processed asynchronously.
func (h *Meeting) CreateMeeting(c echo.Context) error {
	var req meeting.CreateMeetingRequest
	if err := c.Bind(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidPayload())
	}
	if err := c.Validate(&req); err != nil {
		return HandleError(h.logger, c, apperrors.ErrValidation(err))
	}

	source := entities.MeetingSource(req.Source)
	accepted, err := h.coordinator.Ingest(c.Request().Context(), req.Title, req.Notes, source, req.Metadata)
	if err != nil {
		return HandleError(h.logger, c, mapIngestError(req.Source, err))
	}

	resp := meeting.CreateMeetingResponse{
		MeetingID: accepted.ID.String(),
		Status:    string(accepted.Status),
	}
	return HandleSuccess(h.logger, c, http.StatusAccepted, resp)
}

// GetMeetingStatus handles GET /v1/meetings/:id/status
func (h *Meeting) GetMeetingStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrInvalidArgument("invalid meeting id"))
	}

	m, err := h.meetings.FindByID(c.Request().Context(), id)
	if stdErrors.Is(err, entities.ErrMeetingNotFound) {
		return HandleError(h.logger, c, apperrors.ErrNotFound("meeting"))
	}
	if err != nil {
		return HandleError(h.logger, c, apperrors.ErrDBQueryFailed(err))
	}

	return HandleSuccess(h.logger, c, http.StatusOK, presenter.ToMeetingStatusResponse(m))
}

// mapIngestError translates coordinator errors to API errors
func mapIngestError(source string, err error) error {
	switch {
	case stdErrors.Is(err, entities.ErrEmptyMeeting):
		return apperrors.ErrInvalidArgument("meeting has no usable notes")
	case stdErrors.Is(err, entities.ErrInvalidSource):
		return apperrors.ErrInvalidArgument("source must be one of manual, notion, file, upload")
	case stdErrors.Is(err, ingest.ErrQueueFull):
		return apperrors.ErrQueueFull()
	}
	if source == string(entities.MeetingSourceFile) || source == string(entities.MeetingSourceUpload) {
		return apperrors.ErrNotesUnresolvable(source, err)
	}
	return apperrors.ErrInternal(err)
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/painpoint-labs/painpoint/internal/domain/entities"
	"github.com/painpoint-labs/painpoint/internal/domain/repositories"
	"github.com/painpoint-labs/painpoint/internal/usecase/cluster"
	"github.com/painpoint-labs/painpoint/internal/usecase/extract"
	"github.com/painpoint-labs/painpoint/internal/usecase/theme"
)

// ErrQueueFull is returned when the ingestion buffer cannot accept more work
var ErrQueueFull = errors.New("ingestion queue full")

// NotesResolver fetches raw notes stored out of band (file and upload
// sources keep notes in object storage, referenced by key in metadata)
type NotesResolver interface {
	FetchNotes(ctx context.Context, objectKey string) (string, error)
}

// Invalidator drops derived read-side caches after a write
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// Coordinator is the single entry point for raw meetings. Ingest
// persists the meeting and acknowledges; a worker pool runs extraction,
// clustering and theme reconciliation asynchronously. The
// acknowledgment is only issued after the durable write, so an accepted
// meeting is never lost without a recorded failure.
type Coordinator struct {
	meetings   repositories.MeetingRepository
	extractor  *extract.Extractor
	clusterer  *cluster.Clusterer
	aggregator *theme.Aggregator
	notes      NotesResolver
	cache      Invalidator
	logger     *zap.Logger

	jobs     chan uuid.UUID
	stopChan chan struct{}
	workerWg sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewCoordinator wires the pipeline. notes and cache may be nil when
// object storage or the read cache are not configured.
func NewCoordinator(
	meetings repositories.MeetingRepository,
	extractor *extract.Extractor,
	clusterer *cluster.Clusterer,
	aggregator *theme.Aggregator,
	notes NotesResolver,
	cache Invalidator,
	bufferSize int,
	logger *zap.Logger,
) *Coordinator {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &Coordinator{
		meetings:   meetings,
		extractor:  extractor,
		clusterer:  clusterer,
		aggregator: aggregator,
		notes:      notes,
		cache:      cache,
		logger:     logger,
		jobs:       make(chan uuid.UUID, bufferSize),
		stopChan:   make(chan struct{}),
	}
}

// Ingest accepts a raw meeting for processing. The returned meeting is
// in the queued state; acceptance means the signal will eventually be
// attached to exactly one opportunity or the meeting will surface a
// recorded failure.
func (co *Coordinator) Ingest(ctx context.Context, title, notes string, source entities.MeetingSource, metadata map[string]interface{}) (*entities.Meeting, error) {
	if source == "" {
		source = entities.MeetingSourceManual
	}
	if !entities.ValidSource(source) {
		return nil, entities.ErrInvalidSource
	}

	resolved, err := co.resolveNotes(ctx, notes, source, metadata)
	if err != nil {
		return nil, err
	}
	if title == "" && resolved == "" {
		return nil, entities.ErrEmptyMeeting
	}

	meeting := entities.NewMeeting(title, resolved, source, metadata)
	if err := co.meetings.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to persist meeting: %w", err)
	}

	select {
	case co.jobs <- meeting.ID:
	default:
		meeting.MarkFailed("ingestion queue full")
		if updateErr := co.meetings.UpdateStatus(ctx, meeting); updateErr != nil && co.logger != nil {
			co.logger.Error("failed to record queue-full failure",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(updateErr),
			)
		}
		return nil, ErrQueueFull
	}

	if co.logger != nil {
		co.logger.Info("meeting accepted",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("source", string(source)),
		)
	}
	return meeting, nil
}

// resolveNotes returns the notes inline or fetched from object storage
// for file/upload sources
func (co *Coordinator) resolveNotes(ctx context.Context, notes string, source entities.MeetingSource, metadata map[string]interface{}) (string, error) {
	if notes != "" {
		return notes, nil
	}
	if source != entities.MeetingSourceFile && source != entities.MeetingSourceUpload {
		return "", nil
	}
	key, _ := metadata["notes_object"].(string)
	if key == "" {
		return "", nil
	}
	if co.notes == nil {
		return "", fmt.Errorf("source %q requires object storage, which is not configured", source)
	}
	fetched, err := co.notes.FetchNotes(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to fetch notes object %q: %w", key, err)
	}
	return fetched, nil
}

// Start launches the worker pool
func (co *Coordinator) Start(workerCount int) error {
	co.mu.Lock()
	defer co.mu.Unlock()

	if co.running {
		return fmt.Errorf("worker pool already running")
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	co.running = true
	co.stopChan = make(chan struct{})

	for i := 0; i < workerCount; i++ {
		co.workerWg.Add(1)
		go func(id int) {
			defer co.workerWg.Done()
			for {
				select {
				case <-co.stopChan:
					return
				case meetingID := <-co.jobs:
					if err := co.Process(context.Background(), meetingID); err != nil && co.logger != nil {
						co.logger.Error("pipeline failed",
							zap.Int("worker", id),
							zap.String("meeting_id", meetingID.String()),
							zap.Error(err),
						)
					}
				}
			}
		}(i)
	}

	if co.logger != nil {
		co.logger.Info("ingestion workers started", zap.Int("worker_count", workerCount))
	}
	return nil
}

// Stop signals the workers and waits for in-flight jobs to finish
func (co *Coordinator) Stop() {
	co.mu.Lock()
	defer co.mu.Unlock()

	if !co.running {
		return
	}
	close(co.stopChan)
	co.workerWg.Wait()
	co.running = false

	if co.logger != nil {
		co.logger.Info("ingestion workers stopped")
	}
}

// Process runs the pipeline for one accepted meeting. It is idempotent:
// meetings already in a terminal state are skipped. A failure before
// the attach leaves no orphan signal, only a meeting marked failed.
func (co *Coordinator) Process(ctx context.Context, meetingID uuid.UUID) error {
	meeting, err := co.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("failed to load meeting %s: %w", meetingID, err)
	}
	if meeting.IsTerminal() {
		return nil
	}

	meeting.MarkProcessing()
	if err := co.meetings.UpdateStatus(ctx, meeting); err != nil {
		return fmt.Errorf("failed to mark meeting processing: %w", err)
	}

	signal := co.extractor.Extract(meeting)

	result, err := co.clusterer.Attach(ctx, signal)
	if err != nil {
		co.fail(ctx, meeting, fmt.Sprintf("clustering failed: %v", err))
		return fmt.Errorf("failed to attach signal for meeting %s: %w", meetingID, err)
	}

	// Theme membership is a derived view; reconciliation failure leaves
	// the opportunity unassigned (a valid transient state) and is
	// retried on the next update.
	if err := co.aggregator.Reconcile(ctx, result.Opportunity); err != nil && co.logger != nil {
		co.logger.Warn("theme reconciliation deferred",
			zap.String("opportunity_id", result.Opportunity.ID.String()),
			zap.Error(err),
		)
	}

	meeting.MarkDone()
	if err := co.meetings.UpdateStatus(ctx, meeting); err != nil {
		return fmt.Errorf("failed to mark meeting done: %w", err)
	}

	if co.cache != nil {
		co.cache.Invalidate(ctx)
	}

	if co.logger != nil {
		co.logger.Debug("meeting processed",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("outcome", string(result.Outcome)),
			zap.String("opportunity_id", result.Opportunity.ID.String()),
		)
	}
	return nil
}

// Pending reports how many accepted meetings are not yet in a terminal state
func (co *Coordinator) Pending(ctx context.Context) (int64, error) {
	return co.meetings.CountPending(ctx)
}

func (co *Coordinator) fail(ctx context.Context, meeting *entities.Meeting, reason string) {
	meeting.MarkFailed(reason)
	if err := co.meetings.UpdateStatus(ctx, meeting); err != nil && co.logger != nil {
		co.logger.Error("failed to record processing failure",
			zap.String("meeting_id", meeting.ID.String()),
			zap.Error(err),
		)
	}
}

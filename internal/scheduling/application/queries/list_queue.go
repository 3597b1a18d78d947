package queries

import (
	"context"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/application/services"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
	"github.com/google/uuid"
)

// QueueEventDTO is a data transfer object for one queued publish action.
type QueueEventDTO struct {
	ID                uuid.UUID
	RemoteID          string
	ProfileID         string
	VideoPath         string
	ScheduledTime     time.Time
	Status            string
	ViralMusicEnabled bool
	MusicVolume       float64
	ErrorMessage      string
}

// ListQueueQuery contains the parameters for listing the publish queue.
type ListQueueQuery struct {
	// ProfileID limits the view to one profile when set.
	ProfileID sharedDomain.ProfileID

	// Mode selects upcoming or history. Defaults to upcoming.
	Mode services.DisplayMode
}

// ListQueueHandler handles the ListQueueQuery.
type ListQueueHandler struct {
	repo       domain.EventRepository
	aggregator *services.ScheduleAggregator
}

// NewListQueueHandler creates a new ListQueueHandler.
func NewListQueueHandler(repo domain.EventRepository, aggregator *services.ScheduleAggregator) *ListQueueHandler {
	return &ListQueueHandler{repo: repo, aggregator: aggregator}
}

// Handle executes the ListQueueQuery.
func (h *ListQueueHandler) Handle(ctx context.Context, query ListQueueQuery) ([]QueueEventDTO, error) {
	mode := query.Mode
	if mode == "" {
		mode = services.DisplayUpcoming
	}

	var events []*domain.ScheduledEvent
	var err error
	if query.ProfileID.IsEmpty() {
		events, err = h.repo.FindAll(ctx)
	} else {
		events, err = h.repo.FindByProfile(ctx, query.ProfileID)
	}
	if err != nil {
		return nil, err
	}

	sorted := h.aggregator.SortForDisplay(events, mode)
	dtos := make([]QueueEventDTO, len(sorted))
	for i, event := range sorted {
		dtos[i] = toQueueEventDTO(event)
	}
	return dtos, nil
}

func toQueueEventDTO(event *domain.ScheduledEvent) QueueEventDTO {
	return QueueEventDTO{
		ID:                event.ID(),
		RemoteID:          event.RemoteID(),
		ProfileID:         event.ProfileID().String(),
		VideoPath:         event.MediaRef(),
		ScheduledTime:     event.ScheduledTime(),
		Status:            string(event.Status()),
		ViralMusicEnabled: event.ViralMusicEnabled(),
		MusicVolume:       event.MusicVolume(),
		ErrorMessage:      event.ErrorMessage(),
	}
}

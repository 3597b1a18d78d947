package commands

import (
	"context"
	"log/slog"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	"github.com/c0rreagui/slotline/pkg/observability"
	"github.com/google/uuid"
)

// EventRemover deletes a scheduled event on the backend. Deletion is
// idempotent; removing an already-gone event succeeds.
type EventRemover interface {
	DeleteEvent(ctx context.Context, remoteID string) error
}

// RemoveEventCommand removes an event from the publish queue.
type RemoveEventCommand struct {
	EventID uuid.UUID
}

// RemoveEventHandler handles the RemoveEventCommand.
type RemoveEventHandler struct {
	backend EventRemover
	repo    domain.EventRepository
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewRemoveEventHandler creates a new RemoveEventHandler. backend may be
// nil for offline operation; the event is then only removed locally.
func NewRemoveEventHandler(backend EventRemover, repo domain.EventRepository, logger *slog.Logger) *RemoveEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoveEventHandler{
		backend: backend,
		repo:    repo,
		logger:  logger,
		metrics: observability.NoopMetrics{},
	}
}

// WithMetrics makes the handler record removal counters.
func (h *RemoveEventHandler) WithMetrics(metrics observability.Metrics) *RemoveEventHandler {
	if metrics != nil {
		h.metrics = metrics
	}
	return h
}

// Handle executes the RemoveEventCommand.
func (h *RemoveEventHandler) Handle(ctx context.Context, cmd RemoveEventCommand) error {
	event, err := h.repo.FindByID(ctx, cmd.EventID)
	if err != nil {
		return err
	}
	if event == nil {
		return domain.ErrEventNotFound
	}

	if h.backend != nil && event.RemoteID() != "" {
		if err := h.backend.DeleteEvent(ctx, event.RemoteID()); err != nil {
			return err
		}
	}

	if err := h.repo.Delete(ctx, cmd.EventID); err != nil {
		return err
	}

	h.metrics.Counter(observability.MetricEventsRemoved, 1)
	h.logger.Info("event removed",
		"event_id", cmd.EventID,
		"remote_id", event.RemoteID(),
	)

	return nil
}

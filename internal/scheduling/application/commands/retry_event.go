package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/c0rreagui/slotline/internal/publisher"
	"github.com/c0rreagui/slotline/internal/scheduling/application/services"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	"github.com/c0rreagui/slotline/pkg/observability"
	"github.com/google/uuid"
)

// ErrBackendRequired is returned when an operation needs a reachable
// backend and none is configured.
var ErrBackendRequired = errors.New("operation requires a reachable backend")

// RetryEventCommand requeues a failed or paused event.
type RetryEventCommand struct {
	EventID uuid.UUID
	Mode    publisher.RetryMode
	Now     time.Time
}

// RetryEventResult contains the event's post-retry state.
type RetryEventResult struct {
	Event *domain.ScheduledEvent
}

// RetryEventHandler handles the RetryEventCommand.
type RetryEventHandler struct {
	backend   BackendGateway
	repo      domain.EventRepository
	suggester *services.SlotSuggester
	policy    domain.ConflictPolicy
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewRetryEventHandler creates a new RetryEventHandler. backend may be nil
// for offline operation; retry-now is then unavailable.
func NewRetryEventHandler(
	backend BackendGateway,
	repo domain.EventRepository,
	suggester *services.SlotSuggester,
	policy domain.ConflictPolicy,
	logger *slog.Logger,
) *RetryEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryEventHandler{
		backend:   backend,
		repo:      repo,
		suggester: suggester,
		policy:    policy,
		logger:    logger,
		metrics:   observability.NoopMetrics{},
	}
}

// WithMetrics makes the handler record retry counters.
func (h *RetryEventHandler) WithMetrics(metrics observability.Metrics) *RetryEventHandler {
	if metrics != nil {
		h.metrics = metrics
	}
	return h
}

// Handle executes the RetryEventCommand. Retry-now asks the backend for an
// immediate out-of-band dispatch and deliberately skips all conflict logic.
// Retry-next-slot finds a fresh non-conflicting time; with a backend the
// server picks it, otherwise the local suggester does.
func (h *RetryEventHandler) Handle(ctx context.Context, cmd RetryEventCommand) (*RetryEventResult, error) {
	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	event, err := h.repo.FindByID(ctx, cmd.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}

	if h.backend != nil {
		updated, err := h.backend.RetryEvent(ctx, event.RemoteID(), cmd.Mode)
		if err != nil {
			return nil, err
		}
		if err := h.repo.Save(ctx, updated); err != nil {
			h.logger.Warn("failed to persist retried event", "event_id", cmd.EventID, "error", err)
		}
		h.metrics.Counter(observability.MetricEventsRetried, 1)
		return &RetryEventResult{Event: updated}, nil
	}

	if cmd.Mode == publisher.RetryNow {
		return nil, ErrBackendRequired
	}

	return h.retryNextSlotLocally(ctx, event, now)
}

func (h *RetryEventHandler) retryNextSlotLocally(ctx context.Context, event *domain.ScheduledEvent, now time.Time) (*RetryEventResult, error) {
	all, err := h.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	// The event must not block its own replacement slot.
	others := make([]*domain.ScheduledEvent, 0, len(all))
	for _, e := range all {
		if e.ID() != event.ID() {
			others = append(others, e)
		}
	}

	origin := event.ScheduledTime()
	if !origin.After(now) {
		origin = now
	}
	candidate := domain.CandidateSlot{
		ProfileID:     event.ProfileID(),
		ScheduledTime: origin,
		MediaRef:      event.MediaRef(),
	}

	suggested, err := h.suggester.Suggest(candidate, others, h.policy, services.SearchForward, now)
	if err != nil {
		return nil, err
	}

	if err := event.Requeue(); err != nil {
		return nil, err
	}
	if err := event.Reschedule(suggested); err != nil {
		return nil, err
	}
	if err := h.repo.Save(ctx, event); err != nil {
		return nil, err
	}

	h.metrics.Counter(observability.MetricEventsRetried, 1)
	h.logger.Info("event requeued locally",
		"event_id", event.ID(),
		"scheduled_time", suggested,
	)

	return &RetryEventResult{Event: event}, nil
}

package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/c0rreagui/slotline/internal/publisher"
	"github.com/c0rreagui/slotline/internal/scheduling/application/services"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	"github.com/google/uuid"
)

// EventRescheduler moves a scheduled event to a new slot on the backend.
type EventRescheduler interface {
	UpdateEvent(ctx context.Context, remoteID string, patch publisher.EventPatch) (*domain.ScheduledEvent, error)
}

// RescheduleEventCommand moves a queued event to a new time.
type RescheduleEventCommand struct {
	EventID uuid.UUID
	NewTime time.Time
	Now     time.Time
}

// RescheduleEventResult reports the outcome of the move.
type RescheduleEventResult struct {
	// Event is the post-move state when the move was accepted.
	Event *domain.ScheduledEvent

	// Rejected is true when the new slot was refused, locally or by the
	// backend. SuggestedTime carries an alternative when one is known; it
	// is reported, never applied.
	Rejected      bool
	Reason        string
	SuggestedTime *time.Time
}

// RescheduleEventHandler handles the RescheduleEventCommand.
type RescheduleEventHandler struct {
	backend  EventRescheduler
	repo     domain.EventRepository
	detector *services.ConflictDetector
	policy   domain.ConflictPolicy
	logger   *slog.Logger
}

// NewRescheduleEventHandler creates a new RescheduleEventHandler. backend
// may be nil for offline operation; events known to the backend are then
// only moved in the local mirror.
func NewRescheduleEventHandler(
	backend EventRescheduler,
	repo domain.EventRepository,
	detector *services.ConflictDetector,
	policy domain.ConflictPolicy,
	logger *slog.Logger,
) *RescheduleEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RescheduleEventHandler{
		backend:  backend,
		repo:     repo,
		detector: detector,
		policy:   policy,
		logger:   logger,
	}
}

// Handle executes the RescheduleEventCommand. The new slot is validated
// against the local mirror first, with the moved event excluded so it does
// not block its own target. A backend 409 marks the move rejected with the
// server's suggestion; the same time is never retried.
func (h *RescheduleEventHandler) Handle(ctx context.Context, cmd RescheduleEventCommand) (*RescheduleEventResult, error) {
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

	all, err := h.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	others := make([]*domain.ScheduledEvent, 0, len(all))
	for _, e := range all {
		if e.ID() != event.ID() {
			others = append(others, e)
		}
	}

	candidate := domain.CandidateSlot{
		ProfileID:     event.ProfileID(),
		ScheduledTime: cmd.NewTime,
		MediaRef:      event.MediaRef(),
	}
	check := h.detector.Check(candidate, others, h.policy, now)
	if !check.CanProceed() {
		return &RescheduleEventResult{
			Rejected:      true,
			Reason:        rejectionReason(check),
			SuggestedTime: check.SuggestedTime,
		}, nil
	}

	if h.backend != nil && event.RemoteID() != "" {
		updated, err := h.backend.UpdateEvent(ctx, event.RemoteID(), publisher.EventPatch{
			ScheduledTime: &cmd.NewTime,
		})
		if err != nil {
			var conflict *publisher.RemoteConflictError
			if errors.As(err, &conflict) {
				h.logger.Warn("backend rejected move",
					"event_id", cmd.EventID,
					"new_time", cmd.NewTime,
					"reason", conflict.Message,
				)
				return &RescheduleEventResult{
					Rejected:      true,
					Reason:        conflict.Message,
					SuggestedTime: conflict.SuggestedTime,
				}, nil
			}
			return nil, err
		}
		if err := h.repo.Save(ctx, updated); err != nil {
			h.logger.Warn("failed to persist moved event", "event_id", cmd.EventID, "error", err)
		}
		return &RescheduleEventResult{Event: updated}, nil
	}

	if err := event.Reschedule(cmd.NewTime); err != nil {
		return nil, err
	}
	if err := h.repo.Save(ctx, event); err != nil {
		return nil, err
	}

	h.logger.Info("event rescheduled locally",
		"event_id", event.ID(),
		"scheduled_time", cmd.NewTime,
	)

	return &RescheduleEventResult{Event: event}, nil
}

package subscribers

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/c0rreagui/slotline/internal/publisher"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	"github.com/c0rreagui/slotline/internal/shared/infrastructure/eventbus"
)

// SnapshotSubscriber mirrors backend queue state into the local store. The
// backend pushes full-list replacements, never per-delta patches, so every
// snapshot swaps the whole local set.
type SnapshotSubscriber struct {
	repo   domain.EventRepository
	logger *slog.Logger

	mu       sync.Mutex
	lastSeen uint64
}

// NewSnapshotSubscriber creates a new snapshot subscriber.
func NewSnapshotSubscriber(repo domain.EventRepository, logger *slog.Logger) *SnapshotSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotSubscriber{
		repo:   repo,
		logger: logger,
	}
}

// EventTypes returns the event types this subscriber handles.
func (s *SnapshotSubscriber) EventTypes() []string {
	return []string{
		domain.RoutingKeySnapshotReplaced,
		domain.RoutingKeyEventScheduled,
		domain.RoutingKeyEventRescheduled,
		domain.RoutingKeyEventRequeued,
	}
}

// Handle processes a push event.
func (s *SnapshotSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	switch event.RoutingKey {
	case domain.RoutingKeySnapshotReplaced:
		return s.handleSnapshot(ctx, event)
	case domain.RoutingKeyEventScheduled,
		domain.RoutingKeyEventRescheduled,
		domain.RoutingKeyEventRequeued:
		return s.handleSingleEvent(ctx, event)
	default:
		s.logger.Warn("unknown event type",
			"routing_key", event.RoutingKey,
		)
		return nil
	}
}

func (s *SnapshotSubscriber) handleSnapshot(ctx context.Context, event *eventbus.ConsumedEvent) error {
	if s.isStale(event.Sequence) {
		s.logger.Debug("discarding stale snapshot",
			"sequence", event.Sequence,
			"event_id", event.EventID,
		)
		return nil
	}

	var dtos []publisher.EventDTO
	if err := json.Unmarshal(event.Payload, &dtos); err != nil {
		// A malformed snapshot cannot be retried into a good one
		s.logger.Error("failed to unmarshal snapshot payload",
			"event_id", event.EventID,
			"error", err,
		)
		return nil
	}

	events := make([]*domain.ScheduledEvent, 0, len(dtos))
	for _, dto := range dtos {
		ev, err := dto.ToDomain()
		if err != nil {
			s.logger.Warn("skipping malformed snapshot entry",
				"remote_id", dto.ID,
				"error", err,
			)
			continue
		}
		events = append(events, ev)
	}

	if err := s.repo.ReplaceAll(ctx, events); err != nil {
		s.logger.Error("failed to replace local snapshot",
			"event_id", event.EventID,
			"error", err,
		)
		return err
	}
	s.markApplied(event.Sequence)

	s.logger.Info("local snapshot replaced",
		"count", len(events),
		"sequence", event.Sequence,
	)

	return nil
}

func (s *SnapshotSubscriber) handleSingleEvent(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var dto publisher.EventDTO
	if err := json.Unmarshal(event.Payload, &dto); err != nil {
		s.logger.Error("failed to unmarshal event payload",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"error", err,
		)
		return nil
	}

	ev, err := dto.ToDomain()
	if err != nil {
		s.logger.Warn("skipping malformed event",
			"remote_id", dto.ID,
			"error", err,
		)
		return nil
	}

	if err := s.repo.Save(ctx, ev); err != nil {
		s.logger.Error("failed to save pushed event",
			"remote_id", dto.ID,
			"error", err,
		)
		return err
	}

	s.logger.Debug("pushed event saved",
		"routing_key", event.RoutingKey,
		"remote_id", dto.ID,
	)

	return nil
}

// isStale reports whether the sequence is at or behind the last snapshot
// that was actually applied. A failed apply leaves lastSeen untouched, so a
// redelivery of the same sequence gets another attempt. Sequence zero means
// the transport carries no ordering and is never stale.
func (s *SnapshotSubscriber) isStale(seq uint64) bool {
	if seq == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq <= s.lastSeen
}

func (s *SnapshotSubscriber) markApplied(seq uint64) {
	if seq == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq > s.lastSeen {
		s.lastSeen = seq
	}
}

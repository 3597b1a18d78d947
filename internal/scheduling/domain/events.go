package domain

import (
	"time"

	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
)

const (
	AggregateType = "ScheduledEvent"

	RoutingKeyEventScheduled   = "queue.event.scheduled"
	RoutingKeyEventRescheduled = "queue.event.rescheduled"
	RoutingKeyEventRequeued    = "queue.event.requeued"
	RoutingKeySnapshotReplaced = "queue.snapshot.replaced"
)

// EventScheduled is emitted when a candidate is accepted into the queue.
type EventScheduled struct {
	sharedDomain.BaseEvent
	ProfileID     string    `json:"profile_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
	MediaRef      string    `json:"media_ref"`
}

// NewEventScheduled creates an EventScheduled event.
func NewEventScheduled(e *ScheduledEvent) EventScheduled {
	return EventScheduled{
		BaseEvent:     sharedDomain.NewBaseEvent(e.ID(), AggregateType, RoutingKeyEventScheduled),
		ProfileID:     e.ProfileID().String(),
		ScheduledTime: e.ScheduledTime(),
		MediaRef:      e.MediaRef(),
	}
}

// EventRescheduled is emitted when an event moves to a new instant.
type EventRescheduled struct {
	sharedDomain.BaseEvent
	ProfileID string    `json:"profile_id"`
	OldTime   time.Time `json:"old_time"`
	NewTime   time.Time `json:"new_time"`
}

// NewEventRescheduled creates an EventRescheduled event.
func NewEventRescheduled(e *ScheduledEvent, oldTime time.Time) EventRescheduled {
	return EventRescheduled{
		BaseEvent: sharedDomain.NewBaseEvent(e.ID(), AggregateType, RoutingKeyEventRescheduled),
		ProfileID: e.ProfileID().String(),
		OldTime:   oldTime,
		NewTime:   e.ScheduledTime(),
	}
}

// EventRequeued is emitted when a failed or paused event returns to pending.
type EventRequeued struct {
	sharedDomain.BaseEvent
	ProfileID     string    `json:"profile_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
}

// NewEventRequeued creates an EventRequeued event.
func NewEventRequeued(e *ScheduledEvent) EventRequeued {
	return EventRequeued{
		BaseEvent:     sharedDomain.NewBaseEvent(e.ID(), AggregateType, RoutingKeyEventRequeued),
		ProfileID:     e.ProfileID().String(),
		ScheduledTime: e.ScheduledTime(),
	}
}

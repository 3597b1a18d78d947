package domain

import (
	"time"

	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
)

// CandidateSlot is a proposed, not-yet-persisted scheduling of one media item
// to one profile at one instant. Candidates are produced by the timeline
// generator and may be shifted by the slot suggester before submission.
type CandidateSlot struct {
	ProfileID     sharedDomain.ProfileID
	ScheduledTime time.Time
	MediaRef      string
}

// ShiftTo returns a copy of the candidate moved to a new instant.
func (c CandidateSlot) ShiftTo(t time.Time) CandidateSlot {
	c.ScheduledTime = t
	return c
}

// ToEvent promotes an accepted candidate to a pending scheduled event.
func (c CandidateSlot) ToEvent() *ScheduledEvent {
	return NewScheduledEvent(c.ProfileID, c.ScheduledTime, c.MediaRef)
}

package domain

import (
	"time"

	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
	"github.com/google/uuid"
)

// Status represents the lifecycle state of a scheduled publish action.
type Status string

const (
	// StatusProcessing means the media is still being prepared server-side.
	StatusProcessing Status = "processing"
	// StatusReady means the media is prepared but not yet queued.
	StatusReady Status = "ready"
	// StatusPending means the event is queued and waiting for its slot.
	StatusPending Status = "pending"
	// StatusPosted means the publish succeeded.
	StatusPosted Status = "posted"
	// StatusCompleted means the publish succeeded and post-processing finished.
	StatusCompleted Status = "completed"
	// StatusFailed means the publish errored. Failed events may be retried.
	StatusFailed Status = "failed"
	// StatusPausedLoginRequired means the target account's session expired.
	// The event is blocked until credentials are repaired externally.
	StatusPausedLoginRequired Status = "paused_login_required"
)

// validTransitions encodes the event lifecycle. Keys are current states,
// values the states reachable from them.
var validTransitions = map[Status][]Status{
	StatusProcessing:          {StatusReady, StatusFailed},
	StatusReady:               {StatusPending},
	StatusPending:             {StatusPosted, StatusCompleted, StatusFailed, StatusPausedLoginRequired},
	StatusFailed:              {StatusPending},
	StatusPausedLoginRequired: {StatusPending},
}

// IsTerminal reports whether no further transitions are expected. Failed is
// not terminal here because a user-initiated retry moves it back to pending.
func (s Status) IsTerminal() bool {
	return s == StatusPosted || s == StatusCompleted
}

// BlocksSlot reports whether an event in this status occupies its time slot
// for conflict purposes. Terminal and failed events free their slot.
func (s Status) BlocksSlot() bool {
	return s == StatusPending || s == StatusPausedLoginRequired
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ScheduledEvent is one planned publish action for a media item on a profile.
// The scheduled time is always an absolute instant; comparisons never go
// through local wall-clock strings.
type ScheduledEvent struct {
	sharedDomain.BaseAggregateRoot
	remoteID      string
	profileID     sharedDomain.ProfileID
	scheduledTime time.Time
	status        Status
	mediaRef      string
	viralMusic    bool
	musicVolume   float64
	errorMessage  string
}

// NewScheduledEvent creates a pending event from an accepted candidate slot.
func NewScheduledEvent(profileID sharedDomain.ProfileID, scheduledTime time.Time, mediaRef string) *ScheduledEvent {
	e := &ScheduledEvent{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		profileID:         profileID,
		scheduledTime:     scheduledTime.UTC(),
		status:            StatusPending,
		mediaRef:          mediaRef,
	}
	e.AddDomainEvent(NewEventScheduled(e))
	return e
}

// Getters
func (e *ScheduledEvent) RemoteID() string         { return e.remoteID }
func (e *ScheduledEvent) ProfileID() sharedDomain.ProfileID { return e.profileID }
func (e *ScheduledEvent) ScheduledTime() time.Time { return e.scheduledTime }
func (e *ScheduledEvent) Status() Status           { return e.status }
func (e *ScheduledEvent) MediaRef() string         { return e.mediaRef }
func (e *ScheduledEvent) ViralMusicEnabled() bool  { return e.viralMusic }
func (e *ScheduledEvent) MusicVolume() float64     { return e.musicVolume }
func (e *ScheduledEvent) ErrorMessage() string     { return e.errorMessage }

// SetRemoteID records the server-assigned identifier after submission.
func (e *ScheduledEvent) SetRemoteID(id string) {
	e.remoteID = id
	e.Touch()
}

// SetPublishOptions sets the publish-time parameters. They are opaque to
// scheduling logic and passed through to the backend unchanged.
func (e *ScheduledEvent) SetPublishOptions(viralMusic bool, musicVolume float64) {
	e.viralMusic = viralMusic
	e.musicVolume = musicVolume
	e.Touch()
}

func (e *ScheduledEvent) transition(next Status) error {
	if !e.status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	e.status = next
	e.Touch()
	return nil
}

// MarkPosted records a successful publish.
func (e *ScheduledEvent) MarkPosted() error {
	return e.transition(StatusPosted)
}

// MarkCompleted records a successful publish including post-processing.
func (e *ScheduledEvent) MarkCompleted() error {
	return e.transition(StatusCompleted)
}

// MarkFailed records a publish error with the backend's message.
func (e *ScheduledEvent) MarkFailed(message string) error {
	if err := e.transition(StatusFailed); err != nil {
		return err
	}
	e.errorMessage = message
	return nil
}

// PauseForLogin blocks the event until the account session is repaired.
func (e *ScheduledEvent) PauseForLogin() error {
	return e.transition(StatusPausedLoginRequired)
}

// Requeue returns a failed or paused event to the pending queue. For a
// failed event this is the user-initiated retry; for a paused event it
// follows the external credential-repair flow.
func (e *ScheduledEvent) Requeue() error {
	if err := e.transition(StatusPending); err != nil {
		return err
	}
	e.errorMessage = ""
	e.AddDomainEvent(NewEventRequeued(e))
	return nil
}

// Reschedule moves a pending or paused event to a new instant.
func (e *ScheduledEvent) Reschedule(newTime time.Time) error {
	if !e.status.BlocksSlot() {
		return ErrInvalidTransition
	}
	oldTime := e.scheduledTime
	e.scheduledTime = newTime.UTC()
	e.Touch()
	e.AddDomainEvent(NewEventRescheduled(e, oldTime))
	return nil
}

// RehydrateScheduledEvent recreates an event from persisted or remote state.
func RehydrateScheduledEvent(
	id uuid.UUID,
	remoteID string,
	profileID sharedDomain.ProfileID,
	scheduledTime time.Time,
	status Status,
	mediaRef string,
	viralMusic bool,
	musicVolume float64,
	errorMessage string,
	createdAt, updatedAt time.Time,
) *ScheduledEvent {
	return &ScheduledEvent{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		),
		remoteID:      remoteID,
		profileID:     profileID,
		scheduledTime: scheduledTime.UTC(),
		status:        status,
		mediaRef:      mediaRef,
		viralMusic:    viralMusic,
		musicVolume:   musicVolume,
		errorMessage:  errorMessage,
	}
}

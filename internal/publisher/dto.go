package publisher

import (
	"fmt"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
	"github.com/google/uuid"
)

// EventDTO mirrors the backend's wire shape for a scheduled event. Field
// names are the backend's contract and must not drift.
type EventDTO struct {
	ID                string  `json:"id,omitempty"`
	ProfileID         string  `json:"profile_id"`
	VideoPath         string  `json:"video_path"`
	ScheduledTime     string  `json:"scheduled_time"`
	Status            string  `json:"status,omitempty"`
	ViralMusicEnabled bool    `json:"viral_music_enabled"`
	MusicVolume       float64 `json:"music_volume"`
	ErrorMessage      string  `json:"error_message,omitempty"`
}

// conflictPayload is the backend's 409 body.
type conflictPayload struct {
	Message       string `json:"message"`
	SuggestedTime string `json:"suggested_time"`
}

// ToDomain converts a wire event to the domain aggregate. The local ID is
// derived from the server-assigned ID so repeated fetches keep identity.
func (d EventDTO) ToDomain() (*domain.ScheduledEvent, error) {
	at, err := time.Parse(time.RFC3339, d.ScheduledTime)
	if err != nil {
		return nil, fmt.Errorf("parse scheduled_time %q: %w", d.ScheduledTime, err)
	}

	localID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(d.ID))
	now := time.Now().UTC()

	return domain.RehydrateScheduledEvent(
		localID,
		d.ID,
		sharedDomain.NewProfileID(d.ProfileID),
		at,
		domain.Status(d.Status),
		d.VideoPath,
		d.ViralMusicEnabled,
		d.MusicVolume,
		d.ErrorMessage,
		now,
		now,
	), nil
}

// FromDomain serializes an event back into the wire shape. Used when a
// fetched queue is re-published as a snapshot for downstream mirrors.
func FromDomain(e *domain.ScheduledEvent) EventDTO {
	return EventDTO{
		ID:                e.RemoteID(),
		ProfileID:         e.ProfileID().String(),
		VideoPath:         e.MediaRef(),
		ScheduledTime:     e.ScheduledTime().UTC().Format(time.RFC3339),
		Status:            string(e.Status()),
		ViralMusicEnabled: e.ViralMusicEnabled(),
		MusicVolume:       e.MusicVolume(),
		ErrorMessage:      e.ErrorMessage(),
	}
}

// FromCandidate builds the create payload for an accepted candidate slot.
func FromCandidate(c domain.CandidateSlot, viralMusic bool, musicVolume float64) EventDTO {
	return EventDTO{
		ProfileID:         c.ProfileID.String(),
		VideoPath:         c.MediaRef,
		ScheduledTime:     c.ScheduledTime.UTC().Format(time.RFC3339),
		ViralMusicEnabled: viralMusic,
		MusicVolume:       musicVolume,
	}
}

// EventPatch carries a partial update. Nil fields are left untouched by the
// backend; the response is the authoritative post-update state.
type EventPatch struct {
	ProfileID         *string    `json:"profile_id,omitempty"`
	ScheduledTime     *time.Time `json:"-"`
	ViralMusicEnabled *bool      `json:"viral_music_enabled,omitempty"`
	MusicVolume       *float64   `json:"music_volume,omitempty"`
}

// wirePatch is the JSON form of EventPatch with the instant serialized.
type wirePatch struct {
	ProfileID         *string  `json:"profile_id,omitempty"`
	ScheduledTime     *string  `json:"scheduled_time,omitempty"`
	ViralMusicEnabled *bool    `json:"viral_music_enabled,omitempty"`
	MusicVolume       *float64 `json:"music_volume,omitempty"`
}

func (p EventPatch) toWire() wirePatch {
	w := wirePatch{
		ProfileID:         p.ProfileID,
		ViralMusicEnabled: p.ViralMusicEnabled,
		MusicVolume:       p.MusicVolume,
	}
	if p.ScheduledTime != nil {
		s := p.ScheduledTime.UTC().Format(time.RFC3339)
		w.ScheduledTime = &s
	}
	return w
}

// RetryMode discriminates the two retry semantics. "now" requests immediate
// out-of-band dispatch and deliberately bypasses all conflict logic;
// "next_slot" asks for a fresh non-conflicting time.
type RetryMode string

const (
	RetryNow      RetryMode = "now"
	RetryNextSlot RetryMode = "next_slot"
)

type retryRequest struct {
	Mode string `json:"mode"`
}

package domain

import (
	"context"

	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
	"github.com/google/uuid"
)

// EventRepository defines persistence for the local snapshot of scheduled
// events. The backend is authoritative; this store only mirrors the last
// snapshot it delivered.
type EventRepository interface {
	// Save persists an event (create or update).
	Save(ctx context.Context, event *ScheduledEvent) error

	// FindByID finds an event by its local ID.
	FindByID(ctx context.Context, id uuid.UUID) (*ScheduledEvent, error)

	// FindByProfile returns all events for a profile.
	FindByProfile(ctx context.Context, profileID sharedDomain.ProfileID) ([]*ScheduledEvent, error)

	// FindAll returns the full local snapshot.
	FindAll(ctx context.Context) ([]*ScheduledEvent, error)

	// ReplaceAll swaps the entire snapshot for a new one. Push updates
	// deliver full-list replacements, never per-delta patches.
	ReplaceAll(ctx context.Context, events []*ScheduledEvent) error

	// Delete removes an event. Absence of the target is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}

package queries

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
)

// icsProductID identifies generated calendars in the PRODID line.
const icsProductID = "-//slotline//publish queue//EN"

// defaultEventDuration is the block length used for exported events. A
// publish action is an instant; the block just makes it visible on
// calendar grids.
const defaultEventDuration = 15 * time.Minute

// ExportCalendarQuery contains the parameters for exporting the queue as an
// iCalendar document.
type ExportCalendarQuery struct {
	// ProfileID limits the export to one profile when set.
	ProfileID sharedDomain.ProfileID

	// IncludeHistory also exports posted, completed and failed events.
	IncludeHistory bool
}

// ExportCalendarHandler handles the ExportCalendarQuery.
type ExportCalendarHandler struct {
	repo domain.EventRepository
}

// NewExportCalendarHandler creates a new ExportCalendarHandler.
func NewExportCalendarHandler(repo domain.EventRepository) *ExportCalendarHandler {
	return &ExportCalendarHandler{repo: repo}
}

// Handle executes the ExportCalendarQuery and returns the serialized ICS
// document.
func (h *ExportCalendarHandler) Handle(ctx context.Context, query ExportCalendarQuery) (string, error) {
	var events []*domain.ScheduledEvent
	var err error
	if query.ProfileID.IsEmpty() {
		events, err = h.repo.FindAll(ctx)
	} else {
		events, err = h.repo.FindByProfile(ctx, query.ProfileID)
	}
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)

	for _, event := range events {
		if !query.IncludeHistory && !event.Status().BlocksSlot() {
			continue
		}

		ve := cal.AddEvent(event.ID().String())
		ve.SetDtStampTime(event.UpdatedAt())
		ve.SetCreatedTime(event.CreatedAt())
		ve.SetStartAt(event.ScheduledTime())
		ve.SetEndAt(event.ScheduledTime().Add(defaultEventDuration))
		ve.SetSummary(fmt.Sprintf("Publish %s", event.MediaRef()))
		ve.SetDescription(fmt.Sprintf("profile=%s status=%s", event.ProfileID().String(), event.Status()))
		if event.Status().IsTerminal() {
			ve.SetStatus(ics.ObjectStatusConfirmed)
		} else {
			ve.SetStatus(ics.ObjectStatusTentative)
		}
	}

	return cal.Serialize(), nil
}

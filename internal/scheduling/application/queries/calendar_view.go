package queries

import (
	"context"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/application/services"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
)

// CalendarDayDTO is one calendar day with its events in ascending order.
type CalendarDayDTO struct {
	Date   string
	Events []QueueEventDTO
}

// CalendarViewDTO is the grouped calendar view in the viewing timezone.
type CalendarViewDTO struct {
	Timezone string
	Days     []CalendarDayDTO

	// Occupancy maps each day key to its event count, for density shading.
	Occupancy map[string]int
}

// CalendarViewQuery contains the parameters for the calendar view.
type CalendarViewQuery struct {
	// ProfileID limits the view to one profile when set.
	ProfileID sharedDomain.ProfileID

	// Location is the viewing timezone. Defaults to UTC. Grouping follows
	// the local calendar date, so the same queue renders differently one
	// timezone east.
	Location *time.Location
}

// CalendarViewHandler handles the CalendarViewQuery.
type CalendarViewHandler struct {
	repo       domain.EventRepository
	aggregator *services.ScheduleAggregator
}

// NewCalendarViewHandler creates a new CalendarViewHandler.
func NewCalendarViewHandler(repo domain.EventRepository, aggregator *services.ScheduleAggregator) *CalendarViewHandler {
	return &CalendarViewHandler{repo: repo, aggregator: aggregator}
}

// Handle executes the CalendarViewQuery.
func (h *CalendarViewHandler) Handle(ctx context.Context, query CalendarViewQuery) (*CalendarViewDTO, error) {
	loc := query.Location
	if loc == nil {
		loc = time.UTC
	}

	var events []*domain.ScheduledEvent
	var err error
	if query.ProfileID.IsEmpty() {
		events, err = h.repo.FindAll(ctx)
	} else {
		events, err = h.repo.FindByProfile(ctx, query.ProfileID)
	}
	if err != nil {
		return nil, err
	}

	groups := h.aggregator.GroupByDay(events, loc)
	keys := h.aggregator.DayKeys(groups)

	days := make([]CalendarDayDTO, len(keys))
	for i, key := range keys {
		group := groups[key]
		dtos := make([]QueueEventDTO, len(group))
		for j, event := range group {
			dtos[j] = toQueueEventDTO(event)
		}
		days[i] = CalendarDayDTO{Date: key, Events: dtos}
	}

	return &CalendarViewDTO{
		Timezone:  loc.String(),
		Days:      days,
		Occupancy: h.aggregator.Occupancy(groups),
	}, nil
}

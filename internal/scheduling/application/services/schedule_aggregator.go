package services

import (
	"sort"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
)

// DisplayMode selects which half of the queue a sorted view shows.
type DisplayMode string

const (
	// DisplayUpcoming shows events still waiting for their slot, soonest first.
	DisplayUpcoming DisplayMode = "upcoming"
	// DisplayHistory shows everything else, most recent first.
	DisplayHistory DisplayMode = "history"
)

// DateKeyLayout formats a grouping key for one calendar day.
const DateKeyLayout = "2006-01-02"

// ScheduleAggregator derives calendar and list views from the latest event
// snapshot. It is a pure function of its inputs: push updates deliver full
// snapshots and every view is recomputed from scratch, never patched.
type ScheduleAggregator struct{}

// NewScheduleAggregator creates a new aggregator.
func NewScheduleAggregator() *ScheduleAggregator {
	return &ScheduleAggregator{}
}

// GroupByDay buckets events by the calendar date their instant falls on in
// the viewing timezone. The grouping key comes from timezone-aware date
// truncation, never from slicing an ISO timestamp: an event at 23:30 UTC
// belongs to the next local day one timezone east.
func (a *ScheduleAggregator) GroupByDay(events []*domain.ScheduledEvent, loc *time.Location) map[string][]*domain.ScheduledEvent {
	if loc == nil {
		loc = time.UTC
	}

	groups := make(map[string][]*domain.ScheduledEvent)
	for _, event := range events {
		key := event.ScheduledTime().In(loc).Format(DateKeyLayout)
		groups[key] = append(groups[key], event)
	}

	// Within a day, events always read in ascending time order.
	for _, group := range groups {
		sortAscending(group)
	}

	return groups
}

// DayKeys returns the group keys in calendar order.
func (a *ScheduleAggregator) DayKeys(groups map[string][]*domain.ScheduledEvent) []string {
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SortForDisplay filters and orders events for a list view. Upcoming keeps
// blocking events (pending, paused_login_required) ascending; history keeps
// the rest descending. Every event lands in exactly one of the two views.
func (a *ScheduleAggregator) SortForDisplay(events []*domain.ScheduledEvent, mode DisplayMode) []*domain.ScheduledEvent {
	filtered := make([]*domain.ScheduledEvent, 0, len(events))
	for _, event := range events {
		if (mode == DisplayUpcoming) == event.Status().BlocksSlot() {
			filtered = append(filtered, event)
		}
	}

	if mode == DisplayUpcoming {
		sortAscending(filtered)
	} else {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].ScheduledTime().After(filtered[j].ScheduledTime())
		})
	}

	return filtered
}

// Occupancy returns the number of events per day group.
func (a *ScheduleAggregator) Occupancy(groups map[string][]*domain.ScheduledEvent) map[string]int {
	counts := make(map[string]int, len(groups))
	for key, group := range groups {
		counts[key] = len(group)
	}
	return counts
}

func sortAscending(events []*domain.ScheduledEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].ScheduledTime().Before(events[j].ScheduledTime())
	})
}

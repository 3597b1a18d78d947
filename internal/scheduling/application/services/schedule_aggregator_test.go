package services

import (
	"testing"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleAggregator_GroupByDayRespectsViewingTimezone(t *testing.T) {
	agg := NewScheduleAggregator()
	event := eventAt("p1", time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC), domain.StatusPending)

	utcGroups := agg.GroupByDay([]*domain.ScheduledEvent{event}, time.UTC)
	require.Contains(t, utcGroups, "2024-03-01")

	plusOne := time.FixedZone("UTC+1", 3600)
	shifted := agg.GroupByDay([]*domain.ScheduledEvent{event}, plusOne)
	require.Contains(t, shifted, "2024-03-02")
	assert.NotContains(t, shifted, "2024-03-01")
}

func TestScheduleAggregator_GroupsSortAscendingWithinDay(t *testing.T) {
	agg := NewScheduleAggregator()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	events := []*domain.ScheduledEvent{
		eventAt("p1", day.Add(18*time.Hour), domain.StatusPending),
		eventAt("p1", day.Add(9*time.Hour), domain.StatusPending),
		eventAt("p2", day.Add(12*time.Hour), domain.StatusPosted),
	}

	groups := agg.GroupByDay(events, time.UTC)
	group := groups["2024-03-01"]
	require.Len(t, group, 3)
	assert.True(t, group[0].ScheduledTime().Before(group[1].ScheduledTime()))
	assert.True(t, group[1].ScheduledTime().Before(group[2].ScheduledTime()))
}

func TestScheduleAggregator_DayKeysAreOrdered(t *testing.T) {
	agg := NewScheduleAggregator()
	events := []*domain.ScheduledEvent{
		eventAt("p1", time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), domain.StatusPending),
		eventAt("p1", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), domain.StatusPending),
		eventAt("p1", time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC), domain.StatusPending),
	}

	groups := agg.GroupByDay(events, time.UTC)
	assert.Equal(t, []string{"2024-03-01", "2024-03-03", "2024-03-05"}, agg.DayKeys(groups))
}

func TestScheduleAggregator_UpcomingHistoryPartitionIsTotalAndDisjoint(t *testing.T) {
	agg := NewScheduleAggregator()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	events := []*domain.ScheduledEvent{
		eventAt("p1", base, domain.StatusPending),
		eventAt("p1", base.Add(time.Hour), domain.StatusPausedLoginRequired),
		eventAt("p1", base.Add(2*time.Hour), domain.StatusPosted),
		eventAt("p1", base.Add(3*time.Hour), domain.StatusCompleted),
		eventAt("p1", base.Add(4*time.Hour), domain.StatusFailed),
		eventAt("p1", base.Add(5*time.Hour), domain.StatusProcessing),
		eventAt("p1", base.Add(6*time.Hour), domain.StatusReady),
	}

	upcoming := agg.SortForDisplay(events, DisplayUpcoming)
	history := agg.SortForDisplay(events, DisplayHistory)

	assert.Len(t, upcoming, 2)
	assert.Len(t, history, 5)
	assert.Equal(t, len(events), len(upcoming)+len(history))

	seen := make(map[string]int)
	for _, e := range append(upcoming, history...) {
		seen[e.ID().String()]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "event %s appears in exactly one view", id)
	}
}

func TestScheduleAggregator_SortOrders(t *testing.T) {
	agg := NewScheduleAggregator()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	events := []*domain.ScheduledEvent{
		eventAt("p1", base.Add(2*time.Hour), domain.StatusPending),
		eventAt("p1", base, domain.StatusPending),
		eventAt("p1", base.Add(5*time.Hour), domain.StatusPosted),
		eventAt("p1", base.Add(3*time.Hour), domain.StatusFailed),
	}

	upcoming := agg.SortForDisplay(events, DisplayUpcoming)
	require.Len(t, upcoming, 2)
	assert.Equal(t, base, upcoming[0].ScheduledTime(), "soonest first")

	history := agg.SortForDisplay(events, DisplayHistory)
	require.Len(t, history, 2)
	assert.Equal(t, base.Add(5*time.Hour), history[0].ScheduledTime(), "most recent first")
}

func TestScheduleAggregator_Occupancy(t *testing.T) {
	agg := NewScheduleAggregator()
	events := []*domain.ScheduledEvent{
		eventAt("p1", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), domain.StatusPending),
		eventAt("p2", time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC), domain.StatusPending),
		eventAt("p1", time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), domain.StatusPending),
	}

	groups := agg.GroupByDay(events, time.UTC)
	counts := agg.Occupancy(groups)

	assert.Equal(t, 2, counts["2024-03-01"])
	assert.Equal(t, 1, counts["2024-03-02"])
}

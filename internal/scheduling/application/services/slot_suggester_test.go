package services

import (
	"testing"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotSuggester_ForwardResolvesConflict(t *testing.T) {
	suggester := NewSlotSuggester(nil)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	policy := domain.ConflictPolicy{MinSeparation: 30 * time.Minute}

	existing := []*domain.ScheduledEvent{
		eventAt("p1", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), domain.StatusPending),
	}
	candidate := candidateAt("p1", time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC))

	suggested, err := suggester.Suggest(candidate, existing, policy, SearchForward, now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), suggested)

	detector := NewConflictDetector(nil)
	recheck := detector.Check(candidate.ShiftTo(suggested), existing, policy, now)
	assert.True(t, recheck.CanProceed())
}

func TestSlotSuggester_ForwardSkipsConsecutiveBookings(t *testing.T) {
	suggester := NewSlotSuggester(nil)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	policy := domain.ConflictPolicy{MinSeparation: 30 * time.Minute}

	// A packed stretch: bookings every 30 minutes from 10:00 to 12:00.
	var existing []*domain.ScheduledEvent
	for i := 0; i <= 4; i++ {
		at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(i) * 30 * time.Minute)
		existing = append(existing, eventAt("p1", at, domain.StatusPending))
	}

	suggested, err := suggester.Suggest(candidateAt("p1", time.Date(2024, 5, 1, 10, 10, 0, 0, time.UTC)),
		existing, policy, SearchForward, now)
	require.NoError(t, err)

	// First probed instant at least 30m clear of the 12:00 booking.
	assert.Equal(t, time.Date(2024, 5, 1, 12, 40, 0, 0, time.UTC), suggested)
}

func TestSlotSuggester_NearestFindsEarlierSideSlot(t *testing.T) {
	suggester := NewSlotSuggester(nil)
	now := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)
	policy := domain.ConflictPolicy{MinSeparation: 30 * time.Minute}

	// A long booked stretch after the candidate leaves only the earlier
	// side free within a few probe steps.
	var existing []*domain.ScheduledEvent
	for i := 0; i < 8; i++ {
		at := time.Date(2024, 5, 1, 10, 45, 0, 0, time.UTC).Add(time.Duration(i) * 30 * time.Minute)
		existing = append(existing, eventAt("p1", at, domain.StatusPending))
	}
	existing = append(existing, eventAt("p1", time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC), domain.StatusPending))

	suggested, err := suggester.Suggest(candidateAt("p1", time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)),
		existing, policy, SearchNearest, now)
	require.NoError(t, err)

	// Backward probe at 09:45 clears the 10:15 booking three rings out,
	// while the forward side stays blocked until well past it.
	assert.Equal(t, time.Date(2024, 5, 1, 9, 45, 0, 0, time.UTC), suggested)
}

func TestSlotSuggester_NeverSuggestsThePast(t *testing.T) {
	suggester := NewSlotSuggester(nil)
	now := time.Date(2024, 5, 1, 10, 20, 0, 0, time.UTC)
	policy := domain.ConflictPolicy{MinSeparation: 30 * time.Minute}

	existing := []*domain.ScheduledEvent{
		eventAt("p1", time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), domain.StatusPending),
	}

	suggested, err := suggester.Suggest(candidateAt("p1", time.Date(2024, 5, 1, 10, 25, 0, 0, time.UTC)),
		existing, policy, SearchNearest, now)
	require.NoError(t, err)

	assert.True(t, suggested.After(now))
	assert.Equal(t, time.Date(2024, 5, 1, 11, 10, 0, 0, time.UTC), suggested)
}

func TestSlotSuggester_ExhaustedHorizonFails(t *testing.T) {
	suggester := NewSlotSuggester(nil)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	// Separation so large the whole horizon stays conflicted.
	policy := domain.ConflictPolicy{
		MinSeparation: 48 * time.Hour,
		SearchHorizon: 24 * time.Hour,
		ProbeStep:     time.Hour,
	}

	existing := []*domain.ScheduledEvent{
		eventAt("p1", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), domain.StatusPending),
	}

	_, err := suggester.Suggest(candidateAt("p1", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		existing, policy, SearchForward, now)
	assert.ErrorIs(t, err, domain.ErrNoSlotFound)
}

func TestSlotSuggester_ProbeStepCappedByMinSeparation(t *testing.T) {
	policy := domain.ConflictPolicy{MinSeparation: 5 * time.Minute, ProbeStep: 15 * time.Minute}
	assert.Equal(t, 5*time.Minute, policy.EffectiveProbeStep())

	policy = domain.ConflictPolicy{MinSeparation: time.Hour, ProbeStep: 15 * time.Minute}
	assert.Equal(t, 15*time.Minute, policy.EffectiveProbeStep())
}

package services

import (
	"testing"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventAt(profile string, at time.Time, status domain.Status) *domain.ScheduledEvent {
	return domain.RehydrateScheduledEvent(
		uuid.New(),
		"remote-"+profile,
		sharedDomain.NewProfileID(profile),
		at,
		status,
		"videos/existing.mp4",
		false,
		0,
		"",
		at.Add(-24*time.Hour),
		at.Add(-24*time.Hour),
	)
}

func candidateAt(profile string, at time.Time) domain.CandidateSlot {
	return domain.CandidateSlot{
		ProfileID:     sharedDomain.NewProfileID(profile),
		ScheduledTime: at,
		MediaRef:      "videos/new.mp4",
	}
}

func TestConflictDetector_SameProfileWithinSeparation(t *testing.T) {
	detector := NewConflictDetector(nil)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	policy := domain.ConflictPolicy{MinSeparation: 30 * time.Minute}

	existing := []*domain.ScheduledEvent{
		eventAt("p1", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), domain.StatusPending),
	}

	result := detector.Check(candidateAt("p1", time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)), existing, policy, now)

	assert.True(t, result.Conflict)
	assert.False(t, result.CanProceed())
	require.NotNil(t, result.ConflictingEvent)
	assert.Equal(t, existing[0].ID(), result.ConflictingEvent.ID())
}

func TestConflictDetector_DifferentProfileNeverConflicts(t *testing.T) {
	detector := NewConflictDetector(nil)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	policy := domain.ConflictPolicy{MinSeparation: 30 * time.Minute}

	existing := []*domain.ScheduledEvent{
		eventAt("p1", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), domain.StatusPending),
	}

	// Exact same instant on another profile.
	result := detector.Check(candidateAt("p2", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)), existing, policy, now)

	assert.False(t, result.Conflict)
	assert.True(t, result.CanProceed())
}

func TestConflictDetector_NonBlockingStatusesFreeTheirSlot(t *testing.T) {
	detector := NewConflictDetector(nil)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	policy := domain.ConflictPolicy{MinSeparation: 30 * time.Minute}
	slot := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for _, status := range []domain.Status{
		domain.StatusPosted,
		domain.StatusCompleted,
		domain.StatusFailed,
		domain.StatusProcessing,
		domain.StatusReady,
	} {
		existing := []*domain.ScheduledEvent{eventAt("p1", slot, status)}
		result := detector.Check(candidateAt("p1", slot), existing, policy, now)
		assert.False(t, result.Conflict, "status %s must not block", status)
	}

	for _, status := range []domain.Status{domain.StatusPending, domain.StatusPausedLoginRequired} {
		existing := []*domain.ScheduledEvent{eventAt("p1", slot, status)}
		result := detector.Check(candidateAt("p1", slot), existing, policy, now)
		assert.True(t, result.Conflict, "status %s must block", status)
	}
}

func TestConflictDetector_ExactSeparationIsAllowed(t *testing.T) {
	detector := NewConflictDetector(nil)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	policy := domain.ConflictPolicy{MinSeparation: 30 * time.Minute}

	existing := []*domain.ScheduledEvent{
		eventAt("p1", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), domain.StatusPending),
	}

	result := detector.Check(candidateAt("p1", time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)), existing, policy, now)
	assert.False(t, result.Conflict)
}

func TestConflictDetector_PastScheduleBlocks(t *testing.T) {
	detector := NewConflictDetector(nil)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	policy := domain.DefaultConflictPolicy()

	result := detector.Check(candidateAt("p1", now.Add(-time.Minute)), nil, policy, now)

	assert.True(t, result.PastSchedule)
	assert.False(t, result.CanProceed())
	assert.False(t, result.Conflict)
}

func TestConflictDetector_QuotaWindowWarnsWithoutBlocking(t *testing.T) {
	detector := NewConflictDetector(nil)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	policy := domain.DefaultConflictPolicy() // 10-day quota window

	result := detector.Check(candidateAt("p1", now.AddDate(0, 0, 12)), nil, policy, now)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, WarnQuotaWindow, result.Warnings[0].Code)
	assert.True(t, result.CanProceed(), "warnings do not block submission")
}

func TestConflictDetector_DelegatesSuggestionOnConflict(t *testing.T) {
	detector := NewConflictDetector(nil)
	detector.AttachSuggester(NewSlotSuggester(nil))

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	policy := domain.ConflictPolicy{
		MinSeparation: 30 * time.Minute,
		SearchHorizon: 14 * 24 * time.Hour,
	}

	existing := []*domain.ScheduledEvent{
		eventAt("p1", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), domain.StatusPending),
	}

	result := detector.Check(candidateAt("p1", time.Date(2024, 5, 1, 10, 15, 0, 0, time.UTC)), existing, policy, now)

	require.True(t, result.Conflict)
	require.NotNil(t, result.SuggestedTime)

	// The proposed slot resolves the conflict and honors the separation rule.
	suggested := candidateAt("p1", *result.SuggestedTime)
	recheck := detector.Check(suggested, existing, policy, now)
	assert.True(t, recheck.CanProceed())
	assert.False(t, result.SuggestedTime.Before(time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)))
}

func TestConflictDetector_PicksNearestConflictingEvent(t *testing.T) {
	detector := NewConflictDetector(nil)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	policy := domain.ConflictPolicy{MinSeparation: time.Hour}

	far := eventAt("p1", time.Date(2024, 5, 1, 10, 50, 0, 0, time.UTC), domain.StatusPending)
	near := eventAt("p1", time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC), domain.StatusPending)

	result := detector.Check(candidateAt("p1", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)),
		[]*domain.ScheduledEvent{far, near}, policy, now)

	require.True(t, result.Conflict)
	assert.Equal(t, near.ID(), result.ConflictingEvent.ID())
}

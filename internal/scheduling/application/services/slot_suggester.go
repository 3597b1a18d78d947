package services

import (
	"log/slog"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
)

// SearchDirection selects how the suggester probes for a free slot.
type SearchDirection string

const (
	// SearchForward probes strictly later instants.
	SearchForward SearchDirection = "forward"
	// SearchNearest probes outward in both directions and returns the
	// closest free instant that is still in the future.
	SearchNearest SearchDirection = "nearest"
)

// SlotSuggester finds the nearest non-conflicting alternative for a
// conflicted candidate. Suggestions are advisory: the caller must accept
// them explicitly and re-validate against live backend state before commit,
// since another client may have booked the slot in the meantime.
type SlotSuggester struct {
	logger *slog.Logger
}

// NewSlotSuggester creates a new slot suggester.
func NewSlotSuggester(logger *slog.Logger) *SlotSuggester {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlotSuggester{logger: logger}
}

// Suggest probes from the candidate's time in fixed increments until a slot
// passes the conflict check, capping the search at the policy horizon and
// failing with ErrNoSlotFound when it is exhausted. The returned instant is
// always in the future relative to now.
func (s *SlotSuggester) Suggest(
	candidate domain.CandidateSlot,
	existing []*domain.ScheduledEvent,
	policy domain.ConflictPolicy,
	direction SearchDirection,
	now time.Time,
) (time.Time, error) {
	step := policy.EffectiveProbeStep()
	horizon := policy.EffectiveSearchHorizon()
	origin := candidate.ScheduledTime

	isFree := func(t time.Time) bool {
		if !t.After(now) {
			return false
		}
		shifted := candidate.ShiftTo(t)
		return nearestBlocking(shifted, existing, policy) == nil
	}

	maxProbes := int(horizon/step) + 1

	switch direction {
	case SearchNearest:
		for i := 0; i <= maxProbes; i++ {
			offset := time.Duration(i) * step
			if forward := origin.Add(offset); isFree(forward) {
				return forward, nil
			}
			if i == 0 {
				continue
			}
			if backward := origin.Add(-offset); isFree(backward) {
				return backward, nil
			}
		}
	default:
		for i := 0; i <= maxProbes; i++ {
			probe := origin.Add(time.Duration(i) * step)
			if isFree(probe) {
				return probe, nil
			}
		}
	}

	s.logger.Debug("slot search exhausted",
		"profile_id", candidate.ProfileID.String(),
		"origin", origin,
		"horizon", horizon,
		"direction", string(direction),
	)

	return time.Time{}, domain.ErrNoSlotFound
}

package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
)

// WarningCode classifies non-fatal advisories attached to a check result.
type WarningCode string

const (
	// WarnQuotaWindow flags a candidate beyond the platform's expected
	// scheduling horizon. Warnings never block submission.
	WarnQuotaWindow WarningCode = "quota_window"
)

// Warning is a non-blocking advisory surfaced to the caller.
type Warning struct {
	Code    WarningCode
	Message string
}

// CheckResult reports the outcome of validating one candidate slot against
// a snapshot of existing bookings.
type CheckResult struct {
	// Conflict is true when another blocking event on the same profile sits
	// closer than the policy's minimum separation.
	Conflict bool

	// ConflictingEvent is the nearest offending booking when Conflict is set.
	ConflictingEvent *domain.ScheduledEvent

	// SuggestedTime carries the nearest non-conflicting alternative when a
	// conflict was found and a suggester is attached. It is a proposal only;
	// it is never applied automatically.
	SuggestedTime *time.Time

	// PastSchedule is true when the candidate's time has already elapsed.
	PastSchedule bool

	// Warnings are non-fatal advisories. Only errors block submission.
	Warnings []Warning
}

// CanProceed reports whether the candidate may be submitted. Warnings do
// not block; conflicts and elapsed times do.
func (r CheckResult) CanProceed() bool {
	return !r.Conflict && !r.PastSchedule
}

// slotProposer is the narrow suggester surface the detector delegates to.
type slotProposer interface {
	Suggest(candidate domain.CandidateSlot, existing []*domain.ScheduledEvent, policy domain.ConflictPolicy, direction SearchDirection, now time.Time) (time.Time, error)
}

// ConflictDetector validates candidate slots against a profile's existing
// bookings under a minimum-separation policy. It holds no mutable state
// between calls and is cheap enough for debounced interactive validation.
type ConflictDetector struct {
	suggester slotProposer
	logger    *slog.Logger
}

// NewConflictDetector creates a new conflict detector.
func NewConflictDetector(logger *slog.Logger) *ConflictDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConflictDetector{logger: logger}
}

// AttachSuggester wires the slot suggester used to propose alternatives on
// conflict. Without one, results carry no suggested time.
func (d *ConflictDetector) AttachSuggester(s slotProposer) {
	d.suggester = s
}

// Check validates a candidate against a pre-fetched snapshot of existing
// events. Only blocking events (pending, paused_login_required) on the
// candidate's own profile are considered; terminal and failed events free
// their slot. now is the evaluation instant, injected for determinism.
func (d *ConflictDetector) Check(
	candidate domain.CandidateSlot,
	existing []*domain.ScheduledEvent,
	policy domain.ConflictPolicy,
	now time.Time,
) CheckResult {
	result := CheckResult{}

	if !candidate.ScheduledTime.After(now) {
		result.PastSchedule = true
	}

	if quota := policy.QuotaWindow; quota > 0 && candidate.ScheduledTime.After(now.Add(quota)) {
		result.Warnings = append(result.Warnings, Warning{
			Code: WarnQuotaWindow,
			Message: fmt.Sprintf("scheduled more than %d days ahead of the platform's quota window",
				int(quota.Hours()/24)),
		})
	}

	if nearest := nearestBlocking(candidate, existing, policy); nearest != nil {
		result.Conflict = true
		result.ConflictingEvent = nearest

		if d.suggester != nil {
			suggested, err := d.suggester.Suggest(candidate, existing, policy, SearchForward, now)
			if err != nil {
				d.logger.Debug("no alternative slot available",
					"profile_id", candidate.ProfileID.String(),
					"candidate_time", candidate.ScheduledTime,
					"error", err,
				)
			} else {
				result.SuggestedTime = &suggested
			}
		}
	}

	return result
}

// nearestBlocking returns the closest same-profile blocking event within the
// minimum separation, or nil when the slot is free.
func nearestBlocking(
	candidate domain.CandidateSlot,
	existing []*domain.ScheduledEvent,
	policy domain.ConflictPolicy,
) *domain.ScheduledEvent {
	var nearest *domain.ScheduledEvent
	var nearestGap time.Duration

	for _, event := range existing {
		if !event.ProfileID().Equals(candidate.ProfileID) {
			continue
		}
		if !event.Status().BlocksSlot() {
			continue
		}

		gap := candidate.ScheduledTime.Sub(event.ScheduledTime())
		if gap < 0 {
			gap = -gap
		}
		if gap >= policy.MinSeparation {
			continue
		}
		if nearest == nil || gap < nearestGap {
			nearest = event
			nearestGap = gap
		}
	}

	return nearest
}

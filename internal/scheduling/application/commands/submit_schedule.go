package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/c0rreagui/slotline/internal/publisher"
	"github.com/c0rreagui/slotline/internal/scheduling/application/services"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	"github.com/c0rreagui/slotline/pkg/observability"
)

// BackendGateway is the backend surface the command handlers depend on.
type BackendGateway interface {
	ListEvents(ctx context.Context) ([]*domain.ScheduledEvent, error)
	CreateEvent(ctx context.Context, candidate domain.CandidateSlot, viralMusic bool, musicVolume float64) (*domain.ScheduledEvent, error)
	RetryEvent(ctx context.Context, remoteID string, mode publisher.RetryMode) (*domain.ScheduledEvent, error)
}

// SubmitScheduleCommand contains the accepted slots to commit to the backend.
type SubmitScheduleCommand struct {
	Slots       []domain.CandidateSlot
	ViralMusic  bool
	MusicVolume float64
	Now         time.Time
}

// SubmissionOutcome reports what happened to one slot.
type SubmissionOutcome struct {
	Candidate domain.CandidateSlot

	// Event is the backend's authoritative record when the slot was accepted.
	Event *domain.ScheduledEvent

	// Rejected is true when the slot was not committed, either by the local
	// re-check or by the backend.
	Rejected bool
	Reason   string

	// SuggestedTime carries an alternative instant when one is known. It is
	// reported back to the caller, never submitted automatically.
	SuggestedTime *time.Time
}

// SubmitScheduleResult contains per-slot outcomes for the whole batch.
type SubmitScheduleResult struct {
	Outcomes       []SubmissionOutcome
	SubmittedCount int
	RejectedCount  int
}

// SubmitScheduleHandler handles the SubmitScheduleCommand.
type SubmitScheduleHandler struct {
	backend  BackendGateway
	repo     domain.EventRepository
	detector *services.ConflictDetector
	policy   domain.ConflictPolicy
	logger   *slog.Logger
	metrics  observability.Metrics
}

// NewSubmitScheduleHandler creates a new SubmitScheduleHandler.
func NewSubmitScheduleHandler(
	backend BackendGateway,
	repo domain.EventRepository,
	detector *services.ConflictDetector,
	policy domain.ConflictPolicy,
	logger *slog.Logger,
) *SubmitScheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitScheduleHandler{
		backend:  backend,
		repo:     repo,
		detector: detector,
		policy:   policy,
		logger:   logger,
		metrics:  observability.NoopMetrics{},
	}
}

// WithMetrics makes the handler record submission counters.
func (h *SubmitScheduleHandler) WithMetrics(metrics observability.Metrics) *SubmitScheduleHandler {
	if metrics != nil {
		h.metrics = metrics
	}
	return h
}

// Handle executes the SubmitScheduleCommand. The backend's queue is
// re-fetched first so every slot is re-validated against authoritative
// state, not the possibly stale local snapshot. A backend 409 marks the
// slot rejected with the server's suggestion; the same payload is never
// retried.
func (h *SubmitScheduleHandler) Handle(ctx context.Context, cmd SubmitScheduleCommand) (*SubmitScheduleResult, error) {
	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	remote, err := h.backend.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	result := &SubmitScheduleResult{
		Outcomes: make([]SubmissionOutcome, 0, len(cmd.Slots)),
	}

	occupied := remote
	for _, slot := range cmd.Slots {
		outcome := SubmissionOutcome{Candidate: slot}

		check := h.detector.Check(slot, occupied, h.policy, now)
		if !check.CanProceed() {
			outcome.Rejected = true
			outcome.Reason = rejectionReason(check)
			outcome.SuggestedTime = check.SuggestedTime
			result.Outcomes = append(result.Outcomes, outcome)
			result.RejectedCount++
			continue
		}

		event, err := h.backend.CreateEvent(ctx, slot, cmd.ViralMusic, cmd.MusicVolume)
		if err != nil {
			var conflict *publisher.RemoteConflictError
			if errors.As(err, &conflict) {
				h.logger.Warn("backend rejected slot",
					"profile_id", slot.ProfileID.String(),
					"scheduled_time", slot.ScheduledTime,
					"reason", conflict.Message,
				)
				outcome.Rejected = true
				outcome.Reason = conflict.Message
				outcome.SuggestedTime = conflict.SuggestedTime
				result.Outcomes = append(result.Outcomes, outcome)
				result.RejectedCount++
				continue
			}
			return nil, err
		}

		outcome.Event = event
		result.Outcomes = append(result.Outcomes, outcome)
		result.SubmittedCount++
		occupied = append(occupied, event)
	}

	h.metrics.Counter(observability.MetricSlotsSubmitted, int64(result.SubmittedCount))
	h.metrics.Counter(observability.MetricSlotsRejected, int64(result.RejectedCount))

	// Mirror the authoritative post-submit queue into the local store.
	final, err := h.backend.ListEvents(ctx)
	if err != nil {
		h.logger.Warn("failed to refresh snapshot after submit", "error", err)
		return result, nil
	}
	if err := h.repo.ReplaceAll(ctx, final); err != nil {
		h.logger.Warn("failed to persist refreshed snapshot", "error", err)
	}

	return result, nil
}

func rejectionReason(check services.CheckResult) string {
	switch {
	case check.PastSchedule:
		return "scheduled time has already elapsed"
	case check.Conflict:
		return "too close to another queued publish on this profile"
	default:
		return "slot cannot be submitted"
	}
}

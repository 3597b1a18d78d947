package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/application/services"
	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
	"github.com/c0rreagui/slotline/pkg/observability"
)

// PlanBatchCommand contains the data needed to lay out a batch of media
// items across profiles.
type PlanBatchCommand struct {
	Items    []string
	Profiles []sharedDomain.ProfileID
	Start    time.Time
	Cadence  domain.CadenceStrategy
	Now      time.Time
}

// PlannedSlot pairs one generated candidate with its validation outcome.
// Suggested alternatives are proposals for the caller to accept or reject;
// planning never applies them on its own.
type PlannedSlot struct {
	Candidate domain.CandidateSlot
	Check     services.CheckResult
}

// PlanBatchResult contains the full generated timeline with per-slot
// validation against the current local snapshot.
type PlanBatchResult struct {
	Slots         []PlannedSlot
	ConflictCount int
	WarningCount  int
}

// Clean reports whether every slot in the plan can be submitted as-is.
func (r *PlanBatchResult) Clean() bool {
	for _, s := range r.Slots {
		if !s.Check.CanProceed() {
			return false
		}
	}
	return true
}

// PlanBatchHandler handles the PlanBatchCommand.
type PlanBatchHandler struct {
	repo      domain.EventRepository
	generator *services.TimelineGenerator
	detector  *services.ConflictDetector
	policy    domain.ConflictPolicy
	logger    *slog.Logger
	metrics   observability.Metrics
}

// NewPlanBatchHandler creates a new PlanBatchHandler.
func NewPlanBatchHandler(
	repo domain.EventRepository,
	generator *services.TimelineGenerator,
	detector *services.ConflictDetector,
	policy domain.ConflictPolicy,
	logger *slog.Logger,
) *PlanBatchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanBatchHandler{
		repo:      repo,
		generator: generator,
		detector:  detector,
		policy:    policy,
		logger:    logger,
		metrics:   observability.NoopMetrics{},
	}
}

// WithMetrics makes the handler record planning counters.
func (h *PlanBatchHandler) WithMetrics(metrics observability.Metrics) *PlanBatchHandler {
	if metrics != nil {
		h.metrics = metrics
	}
	return h
}

// Handle executes the PlanBatchCommand. Each candidate is validated against
// the local snapshot plus the candidates generated before it, so two slots
// in the same batch cannot silently collide with each other.
func (h *PlanBatchHandler) Handle(ctx context.Context, cmd PlanBatchCommand) (*PlanBatchResult, error) {
	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	candidates, err := h.generator.Generate(cmd.Items, cmd.Profiles, cmd.Start, cmd.Cadence, now)
	if err != nil {
		return nil, err
	}

	existing, err := h.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &PlanBatchResult{
		Slots: make([]PlannedSlot, 0, len(candidates)),
	}

	suggestions := 0
	occupied := existing
	for _, candidate := range candidates {
		check := h.detector.Check(candidate, occupied, h.policy, now)
		if check.Conflict {
			result.ConflictCount++
		}
		if check.SuggestedTime != nil {
			suggestions++
		}
		result.WarningCount += len(check.Warnings)
		result.Slots = append(result.Slots, PlannedSlot{
			Candidate: candidate,
			Check:     check,
		})

		// Clean candidates claim their slot for the rest of the batch.
		if check.CanProceed() {
			occupied = append(occupied, candidate.ToEvent())
		}
	}

	h.metrics.Counter(observability.MetricSlotsPlanned, int64(len(result.Slots)))
	h.metrics.Counter(observability.MetricConflictsFound, int64(result.ConflictCount))
	h.metrics.Counter(observability.MetricSlotSuggestions, int64(suggestions))

	h.logger.Debug("batch planned",
		"items", len(cmd.Items),
		"profiles", len(cmd.Profiles),
		"slots", len(result.Slots),
		"conflicts", result.ConflictCount,
	)

	return result, nil
}

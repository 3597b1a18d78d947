package services

import (
	"log/slog"
	"sort"
	"time"

	"github.com/c0rreagui/slotline/internal/scheduling/domain"
	sharedDomain "github.com/c0rreagui/slotline/internal/shared/domain"
)

// TimelineGenerator computes candidate publish timestamps for a batch of
// media items. It is pure: the only clock it sees is the supplied reference
// instant, and it never consults existing bookings.
type TimelineGenerator struct {
	logger *slog.Logger
}

// NewTimelineGenerator creates a new timeline generator.
func NewTimelineGenerator(logger *slog.Logger) *TimelineGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimelineGenerator{logger: logger}
}

// Generate produces one candidate per (item, profile) pair.
//
// For interval cadence, item i lands at start + i*interval in input order,
// identically for every profile. For oracle cadence, each profile gets a
// single item placed at the earliest future occurrence among the supplied
// hints, resolved relative to now; batches of more than one item are
// rejected rather than guessed at.
func (g *TimelineGenerator) Generate(
	items []string,
	profiles []sharedDomain.ProfileID,
	start time.Time,
	cadence domain.CadenceStrategy,
	now time.Time,
) ([]domain.CandidateSlot, error) {
	if err := cadence.Validate(); err != nil {
		return nil, err
	}
	if len(items) == 0 || len(profiles) == 0 {
		return []domain.CandidateSlot{}, nil
	}

	switch cadence.Kind {
	case domain.CadenceInterval:
		return g.generateInterval(items, profiles, start, cadence.Interval), nil
	case domain.CadenceOracle:
		return g.generateOracle(items, profiles, cadence.Hints, now)
	default:
		return nil, domain.ErrInvalidCadence
	}
}

func (g *TimelineGenerator) generateInterval(
	items []string,
	profiles []sharedDomain.ProfileID,
	start time.Time,
	interval time.Duration,
) []domain.CandidateSlot {
	candidates := make([]domain.CandidateSlot, 0, len(items)*len(profiles))
	for _, profile := range profiles {
		for i, item := range items {
			candidates = append(candidates, domain.CandidateSlot{
				ProfileID:     profile,
				ScheduledTime: start.Add(time.Duration(i) * interval),
				MediaRef:      item,
			})
		}
	}

	g.logger.Debug("interval timeline generated",
		"items", len(items),
		"profiles", len(profiles),
		"interval", interval,
	)

	return candidates
}

func (g *TimelineGenerator) generateOracle(
	items []string,
	profiles []sharedDomain.ProfileID,
	hints []domain.OracleHint,
	now time.Time,
) ([]domain.CandidateSlot, error) {
	if len(items) > 1 {
		return nil, domain.ErrOracleBatchUnsupported
	}

	// Resolve every hint to its next future occurrence; the earliest wins.
	occurrences := make([]time.Time, len(hints))
	for i, hint := range hints {
		occurrences[i] = hint.NextOccurrence(now)
	}
	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].Before(occurrences[j])
	})
	best := occurrences[0]

	candidates := make([]domain.CandidateSlot, 0, len(profiles))
	for _, profile := range profiles {
		candidates = append(candidates, domain.CandidateSlot{
			ProfileID:     profile,
			ScheduledTime: best,
			MediaRef:      items[0],
		})
	}

	g.logger.Debug("oracle slot resolved",
		"hints", len(hints),
		"slot", best,
		"profiles", len(profiles),
	)

	return candidates, nil
}

package domain

import "time"

// CadenceKind selects how a batch of candidates is spaced.
type CadenceKind string

const (
	// CadenceInterval spaces successive items by a fixed minute offset.
	CadenceInterval CadenceKind = "interval"
	// CadenceOracle places a single item at an externally ranked
	// high-engagement weekday/hour slot.
	CadenceOracle CadenceKind = "oracle"
)

// OracleHint is an externally supplied "best time" suggestion. Hints are
// pre-computed by the ranking service; the core only resolves each to its
// next future occurrence.
type OracleHint struct {
	Weekday time.Weekday
	Hour    int
	Minute  int
}

// NextOccurrence resolves the hint to its next future occurrence relative
// to now, in now's location. If today matches the hint's weekday but the
// target time has already passed, the slot rolls forward exactly 7 days.
func (h OracleHint) NextOccurrence(now time.Time) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), h.Hour, h.Minute, 0, 0, now.Location())
	delta := DaysUntil(now.Weekday(), h.Weekday)
	target = target.AddDate(0, 0, delta)
	if !target.After(now) {
		target = target.AddDate(0, 0, 7)
	}
	return target
}

// CadenceStrategy configures spacing for a batch of candidates.
type CadenceStrategy struct {
	Kind     CadenceKind
	Interval time.Duration
	Hints    []OracleHint
}

// IntervalCadence builds a fixed-interval strategy.
func IntervalCadence(interval time.Duration) CadenceStrategy {
	return CadenceStrategy{Kind: CadenceInterval, Interval: interval}
}

// OracleCadence builds a best-time strategy from ranked hints.
func OracleCadence(hints ...OracleHint) CadenceStrategy {
	return CadenceStrategy{Kind: CadenceOracle, Hints: hints}
}

// Validate checks the strategy before any timestamp computation.
func (c CadenceStrategy) Validate() error {
	switch c.Kind {
	case CadenceInterval:
		if c.Interval <= 0 {
			return ErrInvalidCadence
		}
	case CadenceOracle:
		if len(c.Hints) == 0 {
			return ErrNoOracleHints
		}
	default:
		return ErrInvalidCadence
	}
	return nil
}

package domain

import "time"

// Default policy values. The minimum separation is an explicit setting
// rather than an implicit exact-match tolerance; callers may override it.
const (
	DefaultMinSeparation = 30 * time.Minute
	DefaultQuotaWindow   = 10 * 24 * time.Hour
	DefaultSearchHorizon = 14 * 24 * time.Hour
	DefaultProbeStep     = 15 * time.Minute
)

// ConflictPolicy governs how close two events on the same profile may sit
// and how far ahead slot searches and quota checks look. Events on
// different profiles never conflict with each other.
type ConflictPolicy struct {
	// MinSeparation is the minimum gap enforced between two events on the
	// same profile.
	MinSeparation time.Duration

	// QuotaWindow is the platform's expected scheduling horizon. Candidates
	// beyond it draw a warning, never an error.
	QuotaWindow time.Duration

	// SearchHorizon caps how far ahead the slot suggester probes before
	// giving up.
	SearchHorizon time.Duration

	// ProbeStep is the increment used when probing for a free slot. When
	// zero, the smaller of MinSeparation and the default step is used.
	ProbeStep time.Duration
}

// DefaultConflictPolicy returns the policy used when none is configured.
func DefaultConflictPolicy() ConflictPolicy {
	return ConflictPolicy{
		MinSeparation: DefaultMinSeparation,
		QuotaWindow:   DefaultQuotaWindow,
		SearchHorizon: DefaultSearchHorizon,
		ProbeStep:     DefaultProbeStep,
	}
}

// Validate checks the policy for usable values.
func (p ConflictPolicy) Validate() error {
	if p.MinSeparation <= 0 {
		return ErrInvalidPolicy
	}
	return nil
}

// EffectiveProbeStep returns the probing increment for slot searches.
func (p ConflictPolicy) EffectiveProbeStep() time.Duration {
	step := p.ProbeStep
	if step <= 0 {
		step = DefaultProbeStep
	}
	if p.MinSeparation < step {
		return p.MinSeparation
	}
	return step
}

// EffectiveSearchHorizon returns the capped search horizon.
func (p ConflictPolicy) EffectiveSearchHorizon() time.Duration {
	if p.SearchHorizon <= 0 {
		return DefaultSearchHorizon
	}
	return p.SearchHorizon
}

package domain

import "errors"

var (
	// ErrInvalidCadence indicates a non-positive publish interval.
	ErrInvalidCadence = errors.New("cadence interval must be positive")

	// ErrOracleBatchUnsupported indicates an oracle cadence was requested for
	// more than one media item. The oracle resolves a single best slot per
	// profile; spreading a batch across oracle hints is not defined.
	ErrOracleBatchUnsupported = errors.New("oracle cadence supports a single media item per profile")

	// ErrNoOracleHints indicates an oracle cadence carried no usable hints.
	ErrNoOracleHints = errors.New("oracle cadence requires at least one hint")

	// ErrPastSchedule indicates a candidate time that has already elapsed.
	ErrPastSchedule = errors.New("scheduled time is in the past")

	// ErrConflictDetected indicates another event on the same profile is
	// closer than the minimum separation.
	ErrConflictDetected = errors.New("conflicting event on same profile")

	// ErrNoSlotFound indicates the slot search exhausted its horizon.
	ErrNoSlotFound = errors.New("no free slot within search horizon")

	// ErrInvalidTransition indicates a disallowed event status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrEventNotFound indicates the referenced event does not exist locally.
	ErrEventNotFound = errors.New("scheduled event not found")

	// ErrInvalidPolicy indicates a conflict policy with a non-positive
	// minimum separation.
	ErrInvalidPolicy = errors.New("minimum separation must be positive")
)

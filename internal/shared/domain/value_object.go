package domain

// ProfileID identifies a target publishing account. It is assigned by the
// backend and treated as opaque; two events conflict only within one profile.
type ProfileID struct {
	value string
}

// NewProfileID creates a ProfileID from its backend representation.
func NewProfileID(value string) ProfileID {
	return ProfileID{value: value}
}

// String returns the backend representation of the ProfileID.
func (p ProfileID) String() string {
	return p.value
}

// IsEmpty returns true if the ProfileID is unset.
func (p ProfileID) IsEmpty() bool {
	return p.value == ""
}

// Equals checks if two ProfileIDs refer to the same account.
func (p ProfileID) Equals(other ProfileID) bool {
	return p.value == other.value
}

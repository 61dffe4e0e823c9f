package enums

import "fmt"

// ClaimStatus tracks a claimant's reservation of a meal.
type ClaimStatus string

const (
	ClaimStatusActive    ClaimStatus = "ACTIVE"
	ClaimStatusCancelled ClaimStatus = "CANCELLED"
	ClaimStatusCompleted ClaimStatus = "COMPLETED"
)

var validClaimStatuses = []ClaimStatus{
	ClaimStatusActive,
	ClaimStatusCancelled,
	ClaimStatusCompleted,
}

// String implements fmt.Stringer.
func (c ClaimStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ClaimStatus.
func (c ClaimStatus) IsValid() bool {
	for _, candidate := range validClaimStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsFinal reports whether the claim can no longer change status.
func (c ClaimStatus) IsFinal() bool {
	return c == ClaimStatusCancelled || c == ClaimStatusCompleted
}

// ParseClaimStatus converts raw input into a ClaimStatus.
func ParseClaimStatus(value string) (ClaimStatus, error) {
	for _, candidate := range validClaimStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid claim status %q", value)
}

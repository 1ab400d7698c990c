package enums

import "fmt"

// BagStatus tracks the availability state of a surplus bag.
type BagStatus string

const (
	BagStatusActive  BagStatus = "active"
	BagStatusExpired BagStatus = "expired"
	BagStatusSoldOut BagStatus = "sold_out"
)

var validBagStatuses = []BagStatus{
	BagStatusActive,
	BagStatusExpired,
	BagStatusSoldOut,
}

// String implements fmt.Stringer.
func (b BagStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BagStatus.
func (b BagStatus) IsValid() bool {
	for _, candidate := range validBagStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBagStatus converts raw input into a BagStatus.
func ParseBagStatus(value string) (BagStatus, error) {
	for _, candidate := range validBagStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid bag status %q", value)
}

package enums

import "fmt"

// CancelledBy identifies which party requested an order cancellation.
type CancelledBy string

const (
	CancelledByCustomer  CancelledBy = "customer"
	CancelledByInstaller CancelledBy = "installer"
	CancelledByAdmin     CancelledBy = "admin"
)

var validCancelledByValues = []CancelledBy{
	CancelledByCustomer,
	CancelledByInstaller,
	CancelledByAdmin,
}

// IsValid reports whether the value is a known CancelledBy party.
func (c CancelledBy) IsValid() bool {
	for _, candidate := range validCancelledByValues {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCancelledBy converts raw input into CancelledBy.
func ParseCancelledBy(value string) (CancelledBy, error) {
	for _, candidate := range validCancelledByValues {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cancelled_by value %q", value)
}

package enums

import "fmt"

// CustomerHistoryType classifies customer-facing activity feed entries.
type CustomerHistoryType string

const (
	CustomerHistoryOrderPlaced      CustomerHistoryType = "order_placed"
	CustomerHistoryPaymentMade      CustomerHistoryType = "payment_made"
	CustomerHistoryOrderUpdated     CustomerHistoryType = "order_updated"
	CustomerHistoryServiceCompleted CustomerHistoryType = "service_completed"
	CustomerHistoryOrderCancelled   CustomerHistoryType = "order_cancelled"
)

var validCustomerHistoryTypes = []CustomerHistoryType{
	CustomerHistoryOrderPlaced,
	CustomerHistoryPaymentMade,
	CustomerHistoryOrderUpdated,
	CustomerHistoryServiceCompleted,
	CustomerHistoryOrderCancelled,
}

// IsValid reports whether the value is a known CustomerHistoryType.
func (t CustomerHistoryType) IsValid() bool {
	for _, candidate := range validCustomerHistoryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseCustomerHistoryType converts raw input into CustomerHistoryType.
func ParseCustomerHistoryType(value string) (CustomerHistoryType, error) {
	for _, candidate := range validCustomerHistoryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customer history type %q", value)
}

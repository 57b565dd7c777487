package enums

import (
	"fmt"
	"strings"
)

// TransactionType tags an immutable ledger entry. Status-change entries use
// the derived "order_<status>" shape; payment entries use fixed values.
type TransactionType string

const (
	TransactionTypeOrderCreated    TransactionType = "order_created"
	TransactionTypePaymentReceived TransactionType = "payment_received"
	TransactionTypeRefundIssued    TransactionType = "refund_issued"
)

const orderTransactionPrefix = "order_"

var validPaymentTransactionTypes = []TransactionType{
	TransactionTypeOrderCreated,
	TransactionTypePaymentReceived,
	TransactionTypeRefundIssued,
}

// TransactionTypeForStatus derives the ledger tag for a status change.
func TransactionTypeForStatus(status OrderStatus) TransactionType {
	return TransactionType(orderTransactionPrefix + string(status))
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a payment type or a derived
// order_<status> tag for a known status.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validPaymentTransactionTypes {
		if candidate == t {
			return true
		}
	}
	raw, ok := strings.CutPrefix(string(t), orderTransactionPrefix)
	if !ok {
		return false
	}
	return OrderStatus(raw).IsValid()
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	t := TransactionType(value)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid transaction type %q", value)
	}
	return t, nil
}

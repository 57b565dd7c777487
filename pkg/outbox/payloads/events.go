package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/serviplace/serviplace-backend/pkg/enums"
)

// OrderCreatedEvent signals a new installation order was placed.
type OrderCreatedEvent struct {
	OrderID      uuid.UUID         `json:"order_id"`
	OrderNumber  string            `json:"order_number"`
	CustomerID   uuid.UUID         `json:"customer_id"`
	TechnicianID *uuid.UUID        `json:"technician_id,omitempty"`
	TotalAmount  decimal.Decimal   `json:"total_amount"`
	Currency     enums.Currency    `json:"currency"`
	Status       enums.OrderStatus `json:"status"`
}

// OrderStateChangedEvent is emitted on every successful status transition.
type OrderStateChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	CustomerID  uuid.UUID         `json:"customer_id"`
	FromStatus  enums.OrderStatus `json:"from_status"`
	ToStatus    enums.OrderStatus `json:"to_status"`
	Note        string            `json:"note,omitempty"`
	ChangedBy   string            `json:"changed_by"`
	ChangedAt   time.Time         `json:"changed_at"`
}

// OrderCancelledEvent is emitted whenever an order is cancelled.
type OrderCancelledEvent struct {
	OrderID         uuid.UUID         `json:"order_id"`
	OrderNumber     string            `json:"order_number"`
	CustomerID      uuid.UUID         `json:"customer_id"`
	Reason          string            `json:"reason"`
	CancelledBy     enums.CancelledBy `json:"cancelled_by"`
	RefundRequested bool              `json:"refund_requested"`
	CancelledAt     time.Time         `json:"cancelled_at"`
}

// OrderRefundedEvent is emitted when a requested refund is confirmed.
type OrderRefundedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    enums.Currency  `json:"currency"`
	PaymentTxID string          `json:"payment_tx_id"`
	ConfirmedAt time.Time       `json:"confirmed_at"`
}

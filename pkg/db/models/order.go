package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/serviplace/serviplace-backend/pkg/enums"
)

// StatusChange is a single immutable entry in an order's status history.
type StatusChange struct {
	Status    enums.OrderStatus `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Note      string            `json:"note"`
	ChangedBy string            `json:"changed_by"`
}

// StatusHistory holds the append-only, insertion-ordered status changes.
// The last entry always matches the order's current status.
type StatusHistory []StatusChange

// Last returns the most recent status change, if any.
func (h StatusHistory) Last() (StatusChange, bool) {
	if len(h) == 0 {
		return StatusChange{}, false
	}
	return h[len(h)-1], true
}

// Cancellation captures the cancel request recorded on an order.
// RefundIssued records intent to refund at cancellation time; settlement
// is tracked separately by Order.RefundStatus.
type Cancellation struct {
	Reason       string            `json:"reason"`
	CancelledBy  enums.CancelledBy `json:"cancelled_by"`
	RefundIssued bool              `json:"refund_issued"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Order represents a customer's installation service order.
type Order struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string             `gorm:"column:order_number;not null"`
	CustomerID      uuid.UUID          `gorm:"column:customer_id;type:uuid;not null"`
	TechnicianID    *uuid.UUID         `gorm:"column:technician_id;type:uuid"`
	SubContractorID *uuid.UUID         `gorm:"column:sub_contractor_id;type:uuid"`
	Status          enums.OrderStatus  `gorm:"column:status;type:order_status;not null;default:'pending'"`
	StatusHistory   StatusHistory      `gorm:"column:status_history;type:jsonb;serializer:json"`
	Cancellation    *Cancellation      `gorm:"column:cancellation;type:jsonb;serializer:json"`
	RefundStatus    enums.RefundStatus `gorm:"column:refund_status;type:refund_status;not null;default:'none'"`
	TotalAmount     decimal.Decimal    `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Currency        enums.Currency     `gorm:"column:currency;type:text;not null;default:'USD'"`
	Notes           *string            `gorm:"column:notes"`
	AcceptedAt      *time.Time         `gorm:"column:accepted_at"`
	StartedAt       *time.Time         `gorm:"column:started_at"`
	CompletedAt     *time.Time         `gorm:"column:completed_at"`
	CancelledAt     *time.Time         `gorm:"column:cancelled_at"`
	Version         int64              `gorm:"column:version;not null;default:1"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/serviplace/serviplace-backend/pkg/enums"
)

// CustomerHistoryRecord is a customer-facing activity feed entry, derived
// from lifecycle events but stored apart from the audit ledger. Append-only.
type CustomerHistoryRecord struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID    uuid.UUID                 `gorm:"column:customer_id;type:uuid;not null"`
	Type          enums.CustomerHistoryType `gorm:"column:type;type:customer_history_type;not null"`
	Title         string                    `gorm:"column:title;not null"`
	Description   string                    `gorm:"column:description;not null"`
	Amount        *decimal.Decimal          `gorm:"column:amount;type:numeric(12,2)"`
	Currency      *enums.Currency           `gorm:"column:currency;type:text"`
	OrderID       *uuid.UUID                `gorm:"column:order_id;type:uuid"`
	TransactionID *uuid.UUID                `gorm:"column:transaction_id;type:uuid"`
	CreatedAt     time.Time                 `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides gorm's pluralized default.
func (CustomerHistoryRecord) TableName() string {
	return "customer_history"
}

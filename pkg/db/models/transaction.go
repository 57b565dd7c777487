package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/serviplace/serviplace-backend/pkg/enums"
)

// Transaction is an immutable ledger entry describing one domain event.
// Rows are append-only: no update or delete path exists anywhere in the
// codebase, and corrections are written as new compensating entries.
type Transaction struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	OrderNumber     string                `gorm:"column:order_number;not null"`
	CustomerID      uuid.UUID             `gorm:"column:customer_id;type:uuid;not null"`
	TechnicianID    *uuid.UUID            `gorm:"column:technician_id;type:uuid"`
	SubContractorID *uuid.UUID            `gorm:"column:sub_contractor_id;type:uuid"`
	Type            enums.TransactionType `gorm:"column:type;not null"`
	Metadata        json.RawMessage       `gorm:"column:metadata;type:jsonb"`
	PerformedBy     string                `gorm:"column:performed_by;not null"`
	PerformedByRole enums.ActorRole       `gorm:"column:performed_by_role;type:actor_role;not null"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}

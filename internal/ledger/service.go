package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/serviplace/serviplace-backend/pkg/db/models"
	"github.com/serviplace/serviplace-backend/pkg/enums"
	"github.com/serviplace/serviplace-backend/pkg/pagination"
)

// Service defines operations that record and read the audit ledger.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.Transaction, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error)
	ListRecent(ctx context.Context, params pagination.Params) (*TransactionList, error)
}

type service struct {
	repo Repository
}

// RecordInput captures the immutable data a ledger transaction requires.
type RecordInput struct {
	OrderID         uuid.UUID             `json:"order_id"`
	OrderNumber     string                `json:"order_number"`
	CustomerID      uuid.UUID             `json:"customer_id"`
	TechnicianID    *uuid.UUID            `json:"technician_id,omitempty"`
	SubContractorID *uuid.UUID            `json:"sub_contractor_id,omitempty"`
	Type            enums.TransactionType `json:"type"`
	Metadata        json.RawMessage       `json:"metadata"`
	PerformedBy     string                `json:"performed_by"`
	PerformedByRole enums.ActorRole       `json:"performed_by_role"`
}

// TransactionList wraps a paginated ledger page plus the next cursor.
type TransactionList struct {
	Transactions []models.Transaction `json:"transactions"`
	NextCursor   string               `json:"next_cursor,omitempty"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.Transaction, error) {
	if input.OrderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("customer id is required")
	}
	if input.OrderNumber == "" {
		return nil, fmt.Errorf("order number is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid transaction type %q", input.Type)
	}

	performedBy := input.PerformedBy
	if performedBy == "" {
		performedBy = "system"
	}
	role := input.PerformedByRole
	if role == "" {
		role = enums.ActorRoleSystem
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid actor role %q", role)
	}

	transaction := &models.Transaction{
		OrderID:         input.OrderID,
		OrderNumber:     input.OrderNumber,
		CustomerID:      input.CustomerID,
		TechnicianID:    input.TechnicianID,
		SubContractorID: input.SubContractorID,
		Type:            input.Type,
		Metadata:        input.Metadata,
		PerformedBy:     performedBy,
		PerformedByRole: role,
	}

	if err := s.repo.Create(ctx, transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error) {
	if orderID == uuid.Nil {
		return nil, fmt.Errorf("order id is required")
	}
	return s.repo.ListByOrderID(ctx, orderID)
}

func (s *service) ListRecent(ctx context.Context, params pagination.Params) (*TransactionList, error) {
	rows, err := s.repo.ListRecent(ctx, params)
	if err != nil {
		return nil, err
	}

	page, hasMore := pagination.Trim(rows, params.Limit)
	list := &TransactionList{Transactions: page}
	if hasMore && len(page) > 0 {
		last := page[len(page)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

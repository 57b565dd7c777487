package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/serviplace/serviplace-backend/pkg/db/models"
	"github.com/serviplace/serviplace-backend/pkg/enums"
	"github.com/serviplace/serviplace-backend/pkg/pagination"
)

// Service records and reads customer-facing activity entries.
type Service interface {
	Record(ctx context.Context, input RecordInput) (*models.CustomerHistoryRecord, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*RecordList, error)
}

type service struct {
	repo Repository
}

// RecordInput captures a single feed entry.
type RecordInput struct {
	CustomerID    uuid.UUID                 `json:"customer_id"`
	Type          enums.CustomerHistoryType `json:"type"`
	Title         string                    `json:"title"`
	Description   string                    `json:"description"`
	Amount        *decimal.Decimal          `json:"amount,omitempty"`
	Currency      *enums.Currency           `json:"currency,omitempty"`
	OrderID       *uuid.UUID                `json:"order_id,omitempty"`
	TransactionID *uuid.UUID                `json:"transaction_id,omitempty"`
}

// RecordList wraps a paginated feed page plus the next cursor.
type RecordList struct {
	Records    []models.CustomerHistoryRecord `json:"records"`
	NextCursor string                         `json:"next_cursor,omitempty"`
}

// NewService wires a history service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("history repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.CustomerHistoryRecord, error) {
	if input.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("customer id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid history type %q", input.Type)
	}
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.Amount != nil && input.Currency == nil {
		return nil, fmt.Errorf("currency is required when amount is set")
	}

	record := &models.CustomerHistoryRecord{
		CustomerID:    input.CustomerID,
		Type:          input.Type,
		Title:         input.Title,
		Description:   input.Description,
		Amount:        input.Amount,
		Currency:      input.Currency,
		OrderID:       input.OrderID,
		TransactionID: input.TransactionID,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*RecordList, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("customer id is required")
	}

	rows, err := s.repo.ListByCustomerID(ctx, customerID, params)
	if err != nil {
		return nil, err
	}

	page, hasMore := pagination.Trim(rows, params.Limit)
	list := &RecordList{Records: page}
	if hasMore && len(page) > 0 {
		last := page[len(page)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

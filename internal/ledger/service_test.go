package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/serviplace/serviplace-backend/pkg/db/models"
	"github.com/serviplace/serviplace-backend/pkg/enums"
	"github.com/serviplace/serviplace-backend/pkg/pagination"
)

type fakeRepository struct {
	createFn     func(ctx context.Context, transaction *models.Transaction) error
	listRecentFn func(ctx context.Context, params pagination.Params) ([]models.Transaction, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	if f.createFn != nil {
		return f.createFn(ctx, transaction)
	}
	return nil
}

func (f *fakeRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error) {
	return nil, nil
}

func (f *fakeRepository) ListRecent(ctx context.Context, params pagination.Params) ([]models.Transaction, error) {
	if f.listRecentFn != nil {
		return f.listRecentFn(ctx, params)
	}
	return nil, nil
}

func TestService_Record(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	metadata := json.RawMessage(`{"previousStatus":"pending","newStatus":"accepted"}`)
	input := RecordInput{
		OrderID:         uuid.New(),
		OrderNumber:     "ORD-202608-0042",
		CustomerID:      uuid.New(),
		Type:            enums.TransactionTypeForStatus(enums.OrderStatusAccepted),
		Metadata:        metadata,
		PerformedBy:     uuid.NewString(),
		PerformedByRole: enums.ActorRoleTechnician,
	}

	var created *models.Transaction
	repo.createFn = func(ctx context.Context, transaction *models.Transaction) error {
		created = transaction
		return nil
	}

	got, err := svc.Record(context.Background(), input)
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if created == nil {
		t.Fatal("expected transaction to be created")
	}
	if created.OrderID != input.OrderID || created.Type != input.Type {
		t.Fatalf("unexpected transaction data: %+v", created)
	}
	if created.OrderNumber != input.OrderNumber || created.CustomerID != input.CustomerID {
		t.Fatalf("missing order metadata: %+v", created)
	}
	if created.PerformedBy != input.PerformedBy || created.PerformedByRole != enums.ActorRoleTechnician {
		t.Fatalf("missing actor attribution: %+v", created)
	}
	if string(created.Metadata) != string(metadata) {
		t.Fatalf("metadata mismatch: %s", created.Metadata)
	}
	if got != created {
		t.Fatalf("service should return created transaction")
	}
}

func TestService_RecordDefaultsToSystemActor(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)

	var created *models.Transaction
	repo.createFn = func(ctx context.Context, transaction *models.Transaction) error {
		created = transaction
		return nil
	}

	_, err := svc.Record(context.Background(), RecordInput{
		OrderID:     uuid.New(),
		OrderNumber: "ORD-202608-0001",
		CustomerID:  uuid.New(),
		Type:        enums.TransactionTypeOrderCreated,
	})
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if created.PerformedBy != "system" {
		t.Fatalf("expected system attribution, got %q", created.PerformedBy)
	}
	if created.PerformedByRole != enums.ActorRoleSystem {
		t.Fatalf("expected system role, got %q", created.PerformedByRole)
	}
}

func TestService_RecordValidation(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo)

	cases := []struct {
		name  string
		input RecordInput
	}{
		{"missing order id", RecordInput{OrderNumber: "ORD-202608-0001", CustomerID: uuid.New(), Type: enums.TransactionTypeOrderCreated}},
		{"missing customer id", RecordInput{OrderID: uuid.New(), OrderNumber: "ORD-202608-0001", Type: enums.TransactionTypeOrderCreated}},
		{"missing order number", RecordInput{OrderID: uuid.New(), CustomerID: uuid.New(), Type: enums.TransactionTypeOrderCreated}},
		{"invalid type", RecordInput{OrderID: uuid.New(), OrderNumber: "ORD-202608-0001", CustomerID: uuid.New(), Type: "bogus"}},
		{"invalid role", RecordInput{OrderID: uuid.New(), OrderNumber: "ORD-202608-0001", CustomerID: uuid.New(), Type: enums.TransactionTypeOrderCreated, PerformedByRole: "owner"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Record(context.Background(), tc.input); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestService_RecordRepositoryError(t *testing.T) {
	repo := &fakeRepository{
		createFn: func(ctx context.Context, transaction *models.Transaction) error {
			return errors.New("insert failed")
		},
	}
	svc, _ := NewService(repo)

	_, err := svc.Record(context.Background(), RecordInput{
		OrderID:     uuid.New(),
		OrderNumber: "ORD-202608-0001",
		CustomerID:  uuid.New(),
		Type:        enums.TransactionTypePaymentReceived,
	})
	if err == nil {
		t.Fatal("expected repository error to propagate")
	}
}

func TestService_ListRecentPagination(t *testing.T) {
	now := time.Now().UTC()
	rows := make([]models.Transaction, 0, 4)
	for i := 0; i < 4; i++ {
		rows = append(rows, models.Transaction{
			ID:        uuid.New(),
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}

	repo := &fakeRepository{
		listRecentFn: func(ctx context.Context, params pagination.Params) ([]models.Transaction, error) {
			return rows, nil
		},
	}
	svc, _ := NewService(repo)

	list, err := svc.ListRecent(context.Background(), pagination.Params{Limit: 3})
	if err != nil {
		t.Fatalf("ListRecent error: %v", err)
	}
	if len(list.Transactions) != 3 {
		t.Fatalf("expected trimmed page of 3, got %d", len(list.Transactions))
	}
	if list.NextCursor == "" {
		t.Fatal("expected next cursor when more rows exist")
	}

	cursor, err := pagination.ParseCursor(list.NextCursor)
	if err != nil {
		t.Fatalf("cursor should round-trip: %v", err)
	}
	if cursor.ID != list.Transactions[2].ID {
		t.Fatalf("cursor should reference the last returned row")
	}
}

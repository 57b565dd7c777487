package orders

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/serviplace/serviplace-backend/internal/ledger"
	"github.com/serviplace/serviplace-backend/pkg/db/models"
	"github.com/serviplace/serviplace-backend/pkg/enums"
	pkgerrors "github.com/serviplace/serviplace-backend/pkg/errors"
	"github.com/serviplace/serviplace-backend/pkg/logger"
	"github.com/serviplace/serviplace-backend/pkg/ordernum"
	"github.com/serviplace/serviplace-backend/pkg/outbox"
	"github.com/serviplace/serviplace-backend/pkg/pagination"
	"github.com/serviplace/serviplace-backend/pkg/payments"
)

type fakeOrderRepo struct {
	orders      map[uuid.UUID]*models.Order
	failUpdates int
	updateCalls int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	stored := *order
	f.orders[order.ID] = &stored
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	for _, order := range f.orders {
		if order.OrderNumber == orderNumber {
			copied := *order
			return &copied, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (f *fakeOrderRepo) List(ctx context.Context, filters Filters, params pagination.Params) ([]models.Order, error) {
	var rows []models.Order
	for _, order := range f.orders {
		rows = append(rows, *order)
	}
	return rows, nil
}

func (f *fakeOrderRepo) ListByCustomerID(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, error) {
	var rows []models.Order
	for _, order := range f.orders {
		if order.CustomerID == customerID {
			rows = append(rows, *order)
		}
	}
	return rows, nil
}

func (f *fakeOrderRepo) UpdateWithVersion(ctx context.Context, id uuid.UUID, expectedVersion int64, updates map[string]any) (bool, error) {
	f.updateCalls++
	order, ok := f.orders[id]
	if !ok || order.Version != expectedVersion {
		return false, nil
	}
	if f.failUpdates > 0 {
		f.failUpdates--
		return false, nil
	}
	for column, value := range updates {
		switch column {
		case "status":
			order.Status = value.(enums.OrderStatus)
		case "status_history":
			var history models.StatusHistory
			if err := json.Unmarshal(value.([]byte), &history); err != nil {
				return false, err
			}
			order.StatusHistory = history
		case "cancellation":
			var cancellation models.Cancellation
			if err := json.Unmarshal(value.([]byte), &cancellation); err != nil {
				return false, err
			}
			order.Cancellation = &cancellation
		case "refund_status":
			order.RefundStatus = value.(enums.RefundStatus)
		case "accepted_at":
			ts := value.(time.Time)
			order.AcceptedAt = &ts
		case "started_at":
			ts := value.(time.Time)
			order.StartedAt = &ts
		case "completed_at":
			ts := value.(time.Time)
			order.CompletedAt = &ts
		case "cancelled_at":
			ts := value.(time.Time)
			order.CancelledAt = &ts
		}
	}
	order.Version = expectedVersion + 1
	return true, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOutbox struct {
	events []outbox.DomainEvent
	err    error
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeLedger struct {
	entries []ledger.RecordInput
	err     error
}

func (f *fakeLedger) Record(ctx context.Context, input ledger.RecordInput) (*models.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.entries = append(f.entries, input)
	return &models.Transaction{ID: uuid.New(), OrderID: input.OrderID, Type: input.Type}, nil
}

type fakeRefunds struct {
	requests []payments.RefundRequest
	err      error
}

func (f *fakeRefunds) RefundPayment(ctx context.Context, req payments.RefundRequest) (*payments.PaymentResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requests = append(f.requests, req)
	return &payments.PaymentResult{TransactionID: "pay_" + uuid.NewString(), Status: "refunded"}, nil
}

type hookCall struct {
	from enums.OrderStatus
	to   enums.OrderStatus
}

type fakeHook struct {
	created     []*models.Order
	transitions []hookCall
	err         error
}

func (f *fakeHook) OrderCreated(ctx context.Context, order *models.Order) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, order)
	return nil
}

func (f *fakeHook) OrderTransitioned(ctx context.Context, order *models.Order, from, to enums.OrderStatus) error {
	if f.err != nil {
		return f.err
	}
	f.transitions = append(f.transitions, hookCall{from: from, to: to})
	return nil
}

type serviceFixture struct {
	svc     *service
	repo    *fakeOrderRepo
	outbox  *fakeOutbox
	ledger  *fakeLedger
	refunds *fakeRefunds
	hook    *fakeHook
}

func newTestService(t *testing.T) *serviceFixture {
	t.Helper()

	fixture := &serviceFixture{
		repo:    newFakeOrderRepo(),
		outbox:  &fakeOutbox{},
		ledger:  &fakeLedger{},
		refunds: &fakeRefunds{},
		hook:    &fakeHook{},
	}
	svc, err := NewService(Deps{
		Repo:    fixture.repo,
		Tx:      fakeTx{},
		Outbox:  fixture.outbox,
		Ledger:  fixture.ledger,
		Refunds: fixture.refunds,
		Hooks:   []LifecycleHook{fixture.hook},
		Logger:  logger.New(logger.Options{Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	fixture.svc = svc.(*service)
	return fixture
}

func (f *serviceFixture) seed(status enums.OrderStatus) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   ordernum.Generate(time.Now()),
		CustomerID:    uuid.New(),
		Status:        status,
		StatusHistory: models.StatusHistory{},
		RefundStatus:  enums.RefundStatusNone,
		TotalAmount:   decimal.NewFromFloat(320.00),
		Currency:      enums.CurrencyUSD,
		Version:       1,
		CreatedAt:     time.Now().UTC(),
	}
	stored := *order
	f.repo.orders[order.ID] = &stored
	return order
}

func TestService_CreateOrder(t *testing.T) {
	f := newTestService(t)

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:  uuid.New(),
		TotalAmount: decimal.NewFromFloat(150.00),
		ActorID:     "cust-1",
		ActorRole:   enums.ActorRoleCustomer,
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	if order.Status != enums.OrderStatusPending {
		t.Fatalf("new order status = %q, want pending", order.Status)
	}
	if !ordernum.IsValid(order.OrderNumber) {
		t.Fatalf("order number %q has invalid shape", order.OrderNumber)
	}
	if len(order.StatusHistory) != 0 {
		t.Fatalf("new order history should be empty, got %d entries", len(order.StatusHistory))
	}
	if order.Version != 1 {
		t.Fatalf("new order version = %d, want 1", order.Version)
	}

	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderCreated {
		t.Fatalf("expected one order_created outbox event, got %+v", f.outbox.events)
	}
	if len(f.ledger.entries) != 1 || f.ledger.entries[0].Type != enums.TransactionTypeOrderCreated {
		t.Fatalf("expected order_created ledger entry, got %+v", f.ledger.entries)
	}
	if len(f.hook.created) != 1 {
		t.Fatalf("expected OrderCreated hook call, got %d", len(f.hook.created))
	}
}

func TestService_CreateOrderValidation(t *testing.T) {
	f := newTestService(t)

	cases := []struct {
		name  string
		input CreateOrderInput
	}{
		{"missing customer", CreateOrderInput{TotalAmount: decimal.NewFromInt(10)}},
		{"negative amount", CreateOrderInput{CustomerID: uuid.New(), TotalAmount: decimal.NewFromInt(-5)}},
		{"bad currency", CreateOrderInput{CustomerID: uuid.New(), TotalAmount: decimal.NewFromInt(10), Currency: "ZZZ"}},
		{"bad role", CreateOrderInput{CustomerID: uuid.New(), TotalAmount: decimal.NewFromInt(10), ActorRole: "owner"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_TransitionStatus(t *testing.T) {
	f := newTestService(t)
	seeded := f.seed(enums.OrderStatusPending)

	order, err := f.svc.TransitionStatus(context.Background(), TransitionInput{
		OrderID:   seeded.ID,
		NewStatus: enums.OrderStatusAccepted,
		Note:      "Technician assigned",
		ActorID:   "tech-9",
		ActorRole: enums.ActorRoleTechnician,
	})
	if err != nil {
		t.Fatalf("TransitionStatus error: %v", err)
	}

	if order.Status != enums.OrderStatusAccepted {
		t.Fatalf("status = %q, want accepted", order.Status)
	}
	if len(order.StatusHistory) != 1 {
		t.Fatalf("history length = %d, want 1", len(order.StatusHistory))
	}
	last, _ := order.StatusHistory.Last()
	if last.Status != enums.OrderStatusAccepted || last.Note != "Technician assigned" || last.ChangedBy != "tech-9" {
		t.Fatalf("unexpected history entry %+v", last)
	}
	if order.AcceptedAt == nil {
		t.Fatal("accepted_at should be set")
	}
	if order.Version != 2 {
		t.Fatalf("version = %d, want 2", order.Version)
	}

	if len(f.ledger.entries) != 1 || f.ledger.entries[0].Type != enums.TransactionTypeForStatus(enums.OrderStatusAccepted) {
		t.Fatalf("expected order_accepted ledger entry, got %+v", f.ledger.entries)
	}
	var meta map[string]string
	if err := json.Unmarshal(f.ledger.entries[0].Metadata, &meta); err != nil {
		t.Fatalf("metadata unmarshal: %v", err)
	}
	if meta["previousStatus"] != "pending" || meta["newStatus"] != "accepted" {
		t.Fatalf("unexpected ledger metadata %v", meta)
	}

	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderStateChanged {
		t.Fatalf("expected order_state_changed outbox event, got %+v", f.outbox.events)
	}
	if len(f.hook.transitions) != 1 || f.hook.transitions[0] != (hookCall{from: enums.OrderStatusPending, to: enums.OrderStatusAccepted}) {
		t.Fatalf("unexpected hook calls %+v", f.hook.transitions)
	}
}

func TestService_TransitionStatusRejections(t *testing.T) {
	f := newTestService(t)
	completed := f.seed(enums.OrderStatusCompleted)
	refunded := f.seed(enums.OrderStatusRefunded)
	cancelled := f.seed(enums.OrderStatusCancelled)
	pending := f.seed(enums.OrderStatusPending)

	cases := []struct {
		name     string
		input    TransitionInput
		wantCode pkgerrors.Code
	}{
		{"completed is terminal", TransitionInput{OrderID: completed.ID, NewStatus: enums.OrderStatusCancelled}, pkgerrors.CodeStateConflict},
		{"refunded is terminal", TransitionInput{OrderID: refunded.ID, NewStatus: enums.OrderStatusPending}, pkgerrors.CodeStateConflict},
		{"cancelled only refundable", TransitionInput{OrderID: cancelled.ID, NewStatus: enums.OrderStatusAccepted}, pkgerrors.CodeStateConflict},
		{"unknown status", TransitionInput{OrderID: pending.ID, NewStatus: "archived"}, pkgerrors.CodeValidation},
		{"missing order", TransitionInput{OrderID: uuid.New(), NewStatus: enums.OrderStatusAccepted}, pkgerrors.CodeNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.TransitionStatus(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != tc.wantCode {
				t.Fatalf("expected %s, got %v", tc.wantCode, err)
			}
		})
	}
	if len(f.ledger.entries) != 0 || len(f.outbox.events) != 0 {
		t.Fatal("rejected transitions must not write ledger entries or events")
	}
}

func TestService_TransitionStatusRetriesVersionConflict(t *testing.T) {
	f := newTestService(t)
	seeded := f.seed(enums.OrderStatusPending)
	f.repo.failUpdates = 1

	order, err := f.svc.TransitionStatus(context.Background(), TransitionInput{
		OrderID:   seeded.ID,
		NewStatus: enums.OrderStatusAccepted,
	})
	if err != nil {
		t.Fatalf("TransitionStatus error: %v", err)
	}
	if f.repo.updateCalls != 2 {
		t.Fatalf("expected 2 CAS attempts, got %d", f.repo.updateCalls)
	}
	if order.Status != enums.OrderStatusAccepted {
		t.Fatalf("status = %q, want accepted", order.Status)
	}
}

func TestService_TransitionStatusConflictExhausted(t *testing.T) {
	f := newTestService(t)
	seeded := f.seed(enums.OrderStatusPending)
	f.repo.failUpdates = 10

	_, err := f.svc.TransitionStatus(context.Background(), TransitionInput{
		OrderID:   seeded.ID,
		NewStatus: enums.OrderStatusAccepted,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestService_TransitionTimestampIdempotent(t *testing.T) {
	f := newTestService(t)
	seeded := f.seed(enums.OrderStatusPending)

	first := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)
	times := []time.Time{first, second}
	f.svc.now = func() time.Time {
		next := times[0]
		if len(times) > 1 {
			times = times[1:]
		}
		return next
	}

	_, err := f.svc.TransitionStatus(context.Background(), TransitionInput{
		OrderID:   seeded.ID,
		NewStatus: enums.OrderStatusAccepted,
	})
	if err != nil {
		t.Fatalf("first transition error: %v", err)
	}

	order, err := f.svc.TransitionStatus(context.Background(), TransitionInput{
		OrderID:   seeded.ID,
		NewStatus: enums.OrderStatusAccepted,
	})
	if err != nil {
		t.Fatalf("replayed transition error: %v", err)
	}

	if order.AcceptedAt == nil || !order.AcceptedAt.Equal(first) {
		t.Fatalf("accepted_at = %v, want first stamp %v", order.AcceptedAt, first)
	}
	if len(order.StatusHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(order.StatusHistory))
	}
	if !order.StatusHistory[0].Timestamp.Before(order.StatusHistory[1].Timestamp) {
		t.Fatal("history timestamps must be monotonic")
	}
}

func TestService_CancelOrderWithRefund(t *testing.T) {
	f := newTestService(t)
	seeded := f.seed(enums.OrderStatusInProgress)

	order, err := f.svc.CancelOrder(context.Background(), CancelInput{
		OrderID:         seeded.ID,
		Reason:          "Customer moved",
		CancelledBy:     enums.CancelledByCustomer,
		ActorID:         "cust-3",
		ActorRole:       enums.ActorRoleCustomer,
		RefundRequested: true,
	})
	if err != nil {
		t.Fatalf("CancelOrder error: %v", err)
	}

	if order.Status != enums.OrderStatusCancelled {
		t.Fatalf("status = %q, want cancelled", order.Status)
	}
	if order.Cancellation == nil || order.Cancellation.Reason != "Customer moved" || !order.Cancellation.RefundIssued {
		t.Fatalf("unexpected cancellation block %+v", order.Cancellation)
	}
	if order.RefundStatus != enums.RefundStatusRequested {
		t.Fatalf("refund status = %q, want requested", order.RefundStatus)
	}
	if order.CancelledAt == nil {
		t.Fatal("cancelled_at should be set")
	}

	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderCancelled {
		t.Fatalf("expected order_cancelled outbox event, got %+v", f.outbox.events)
	}
	if len(f.ledger.entries) != 1 || f.ledger.entries[0].Type != enums.TransactionTypeForStatus(enums.OrderStatusCancelled) {
		t.Fatalf("expected order_cancelled ledger entry, got %+v", f.ledger.entries)
	}
	if len(f.refunds.requests) != 1 {
		t.Fatalf("expected one refund request, got %d", len(f.refunds.requests))
	}
	if !f.refunds.requests[0].Amount.Equal(seeded.TotalAmount) {
		t.Fatalf("refund amount %s, want %s", f.refunds.requests[0].Amount, seeded.TotalAmount)
	}
}

func TestService_CancelOrderRefundFailure(t *testing.T) {
	f := newTestService(t)
	seeded := f.seed(enums.OrderStatusAccepted)
	f.refunds.err = errors.New("provider unavailable")

	order, err := f.svc.CancelOrder(context.Background(), CancelInput{
		OrderID:         seeded.ID,
		Reason:          "Damaged equipment",
		CancelledBy:     enums.CancelledByInstaller,
		RefundRequested: true,
	})
	if !pkgerrors.IsPartialFailure(err) {
		t.Fatalf("expected partial failure, got %v", err)
	}
	if order == nil || order.Status != enums.OrderStatusCancelled {
		t.Fatal("cancellation must stay committed when the refund call fails")
	}
	if order.RefundStatus != enums.RefundStatusRequested {
		t.Fatalf("refund status = %q, want requested", order.RefundStatus)
	}
}

func TestService_CancelOrderValidation(t *testing.T) {
	f := newTestService(t)
	seeded := f.seed(enums.OrderStatusPending)

	_, err := f.svc.CancelOrder(context.Background(), CancelInput{
		OrderID:     seeded.ID,
		CancelledBy: enums.CancelledByCustomer,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing reason, got %v", err)
	}

	_, err = f.svc.CancelOrder(context.Background(), CancelInput{
		OrderID:     seeded.ID,
		Reason:      "duplicate",
		CancelledBy: "stranger",
	})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad cancelled_by, got %v", err)
	}
}

func TestService_ConfirmRefund(t *testing.T) {
	f := newTestService(t)
	seeded := f.seed(enums.OrderStatusCancelled)
	f.repo.orders[seeded.ID].RefundStatus = enums.RefundStatusRequested

	order, err := f.svc.ConfirmRefund(context.Background(), ConfirmRefundInput{
		OrderID:     seeded.ID,
		PaymentTxID: "pay_9f31",
	})
	if err != nil {
		t.Fatalf("ConfirmRefund error: %v", err)
	}

	if order.Status != enums.OrderStatusRefunded {
		t.Fatalf("status = %q, want refunded", order.Status)
	}
	if order.RefundStatus != enums.RefundStatusConfirmed {
		t.Fatalf("refund status = %q, want confirmed", order.RefundStatus)
	}

	if len(f.ledger.entries) != 1 || f.ledger.entries[0].Type != enums.TransactionTypeRefundIssued {
		t.Fatalf("expected refund_issued ledger entry, got %+v", f.ledger.entries)
	}
	var meta map[string]string
	if err := json.Unmarshal(f.ledger.entries[0].Metadata, &meta); err != nil {
		t.Fatalf("metadata unmarshal: %v", err)
	}
	if meta["paymentTxId"] != "pay_9f31" {
		t.Fatalf("unexpected refund metadata %v", meta)
	}
	if len(f.outbox.events) != 1 || f.outbox.events[0].EventType != enums.EventOrderRefunded {
		t.Fatalf("expected order_refunded outbox event, got %+v", f.outbox.events)
	}
}

func TestService_ConfirmRefundRequiresPendingRefund(t *testing.T) {
	f := newTestService(t)
	seeded := f.seed(enums.OrderStatusCancelled)

	_, err := f.svc.ConfirmRefund(context.Background(), ConfirmRefundInput{
		OrderID:     seeded.ID,
		PaymentTxID: "pay_0001",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict without a requested refund, got %v", err)
	}
}

func TestService_LedgerFailureIsPartialFailure(t *testing.T) {
	f := newTestService(t)
	seeded := f.seed(enums.OrderStatusPending)
	f.ledger.err = errors.New("ledger down")

	order, err := f.svc.TransitionStatus(context.Background(), TransitionInput{
		OrderID:   seeded.ID,
		NewStatus: enums.OrderStatusAccepted,
	})
	if !pkgerrors.IsPartialFailure(err) {
		t.Fatalf("expected partial failure, got %v", err)
	}
	if order == nil || order.Status != enums.OrderStatusAccepted {
		t.Fatal("order should be returned with the committed status")
	}

	stored, findErr := f.repo.FindByID(context.Background(), seeded.ID)
	if findErr != nil {
		t.Fatalf("FindByID error: %v", findErr)
	}
	if stored.Status != enums.OrderStatusAccepted {
		t.Fatalf("persisted status = %q, want accepted despite ledger failure", stored.Status)
	}
}

func TestService_GetOrderByNumber(t *testing.T) {
	f := newTestService(t)
	seeded := f.seed(enums.OrderStatusPending)

	order, err := f.svc.GetOrderByNumber(context.Background(), seeded.OrderNumber)
	if err != nil {
		t.Fatalf("GetOrderByNumber error: %v", err)
	}
	if order.ID != seeded.ID {
		t.Fatalf("resolved wrong order %s", order.ID)
	}

	_, err = f.svc.GetOrderByNumber(context.Background(), "not-an-order-number")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for malformed number, got %v", err)
	}
}

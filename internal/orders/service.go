package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/serviplace/serviplace-backend/internal/ledger"
	"github.com/serviplace/serviplace-backend/pkg/db/models"
	"github.com/serviplace/serviplace-backend/pkg/enums"
	pkgerrors "github.com/serviplace/serviplace-backend/pkg/errors"
	"github.com/serviplace/serviplace-backend/pkg/logger"
	"github.com/serviplace/serviplace-backend/pkg/metrics"
	"github.com/serviplace/serviplace-backend/pkg/ordernum"
	"github.com/serviplace/serviplace-backend/pkg/outbox"
	"github.com/serviplace/serviplace-backend/pkg/outbox/payloads"
	"github.com/serviplace/serviplace-backend/pkg/pagination"
	"github.com/serviplace/serviplace-backend/pkg/payments"
)

const (
	// eventSchemaVersion is the envelope version stamped on outbox events.
	eventSchemaVersion = 1

	systemActorID = "system"

	casRetryBase   = 25 * time.Millisecond
	casMaxRetries  = 3
	refundNoteText = "Refund confirmed"
)

var errVersionConflict = errors.New("order version moved")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ledgerRecorder interface {
	Record(ctx context.Context, input ledger.RecordInput) (*models.Transaction, error)
}

type refundProcessor interface {
	RefundPayment(ctx context.Context, req payments.RefundRequest) (*payments.PaymentResult, error)
}

// LifecycleHook receives post-commit notifications about order changes.
// Hooks run after the order write is durable; a hook failure never rolls the
// order back and is surfaced to the caller as a partial-failure warning.
type LifecycleHook interface {
	OrderCreated(ctx context.Context, order *models.Order) error
	OrderTransitioned(ctx context.Context, order *models.Order, from, to enums.OrderStatus) error
}

// CreateOrderInput captures a new installation order request.
type CreateOrderInput struct {
	CustomerID      uuid.UUID
	TechnicianID    *uuid.UUID
	SubContractorID *uuid.UUID
	TotalAmount     decimal.Decimal
	Currency        enums.Currency
	Notes           *string
	ActorID         string
	ActorRole       enums.ActorRole
}

// TransitionInput moves an order to a new lifecycle status.
type TransitionInput struct {
	OrderID   uuid.UUID
	NewStatus enums.OrderStatus
	Note      string
	ActorID   string
	ActorRole enums.ActorRole
}

// CancelInput records a cancellation request against an order.
type CancelInput struct {
	OrderID         uuid.UUID
	Reason          string
	CancelledBy     enums.CancelledBy
	ActorID         string
	ActorRole       enums.ActorRole
	RefundRequested bool
}

// ConfirmRefundInput settles a previously requested refund.
type ConfirmRefundInput struct {
	OrderID     uuid.UUID
	PaymentTxID string
	ActorID     string
	ActorRole   enums.ActorRole
}

// OrderList wraps a paginated page of orders plus the next cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// Service owns the order lifecycle: creation, status transitions,
// cancellation and refund settlement. Every successful mutation commits the
// order write and an outbox event in one transaction, then appends ledger and
// customer-feed records; failures in those secondary writes surface as a
// partial-failure warning alongside the committed order.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	TransitionStatus(ctx context.Context, input TransitionInput) (*models.Order, error)
	CancelOrder(ctx context.Context, input CancelInput) (*models.Order, error)
	ConfirmRefund(ctx context.Context, input ConfirmRefundInput) (*models.Order, error)
	ListOrders(ctx context.Context, filters Filters, params pagination.Params) (*OrderList, error)
	ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error)
}

// Deps wires the service collaborators. Refunds, Hooks and Metrics are
// optional.
type Deps struct {
	Repo    Repository
	Tx      txRunner
	Outbox  outboxEmitter
	Ledger  ledgerRecorder
	Refunds refundProcessor
	Hooks   []LifecycleHook
	Logger  *logger.Logger
	Metrics *metrics.LifecycleMetrics
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxEmitter
	ledger  ledgerRecorder
	refunds refundProcessor
	hooks   []LifecycleHook
	logg    *logger.Logger
	metrics *metrics.LifecycleMetrics
	now     func() time.Time
}

// NewService builds the order lifecycle service.
func NewService(deps Deps) (Service, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if deps.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("ledger recorder required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    deps.Repo,
		tx:      deps.Tx,
		outbox:  deps.Outbox,
		ledger:  deps.Ledger,
		refunds: deps.Refunds,
		hooks:   deps.Hooks,
		logg:    deps.Logger,
		metrics: deps.Metrics,
		now:     time.Now,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	start := time.Now()
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.TotalAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount must not be negative")
	}
	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid currency %q", currency))
	}
	actorID, actorRole, err := resolveActor(input.ActorID, input.ActorRole)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     ordernum.Generate(now),
		CustomerID:      input.CustomerID,
		TechnicianID:    input.TechnicianID,
		SubContractorID: input.SubContractorID,
		Status:          enums.OrderStatusPending,
		StatusHistory:   models.StatusHistory{},
		RefundStatus:    enums.RefundStatusNone,
		TotalAmount:     input.TotalAmount,
		Currency:        currency,
		Notes:           input.Notes,
		Version:         1,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actorRef(actorID, actorRole),
			Data: payloads.OrderCreatedEvent{
				OrderID:      order.ID,
				OrderNumber:  order.OrderNumber,
				CustomerID:   order.CustomerID,
				TechnicianID: order.TechnicianID,
				TotalAmount:  order.TotalAmount,
				Currency:     order.Currency,
				Status:       order.Status,
			},
			Version:    eventSchemaVersion,
			OccurredAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(logCtx, "order created")

	metadata := mustJSON(transitionMetadata{NewStatus: order.Status.String()})
	warn := s.afterCommit(ctx, order,
		[]ledger.RecordInput{{
			OrderID:         order.ID,
			OrderNumber:     order.OrderNumber,
			CustomerID:      order.CustomerID,
			TechnicianID:    order.TechnicianID,
			SubContractorID: order.SubContractorID,
			Type:            enums.TransactionTypeOrderCreated,
			Metadata:        metadata,
			PerformedBy:     actorID,
			PerformedByRole: actorRole,
		}},
		func(hook LifecycleHook) error { return hook.OrderCreated(ctx, order) },
		nil,
	)
	s.metrics.ObserveDuration("create_order", time.Since(start))
	if warn != nil {
		return order, warn
	}
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *service) GetOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	if !ordernum.IsValid(orderNumber) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order number %q", orderNumber))
	}
	return s.repo.FindByOrderNumber(ctx, orderNumber)
}

func (s *service) TransitionStatus(ctx context.Context, input TransitionInput) (*models.Order, error) {
	start := time.Now()
	actorID, actorRole, err := resolveActor(input.ActorID, input.ActorRole)
	if err != nil {
		return nil, err
	}

	order, err := s.transition(ctx, input.OrderID, input.NewStatus, transitionOpts{
		note:      input.Note,
		actorID:   actorID,
		actorRole: actorRole,
	})
	s.metrics.ObserveDuration("transition_status", time.Since(start))
	return order, err
}

func (s *service) CancelOrder(ctx context.Context, input CancelInput) (*models.Order, error) {
	start := time.Now()
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation reason is required")
	}
	if !input.CancelledBy.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid cancelled_by value %q", input.CancelledBy))
	}
	actorID, actorRole, err := resolveActor(input.ActorID, input.ActorRole)
	if err != nil {
		return nil, err
	}

	order, err := s.transition(ctx, input.OrderID, enums.OrderStatusCancelled, transitionOpts{
		note:      input.Reason,
		actorID:   actorID,
		actorRole: actorRole,
		mutate: func(result *models.Order, updates map[string]any, now time.Time) error {
			cancellation := &models.Cancellation{
				Reason:       input.Reason,
				CancelledBy:  input.CancelledBy,
				RefundIssued: input.RefundRequested,
				Timestamp:    now,
			}
			raw, err := json.Marshal(cancellation)
			if err != nil {
				return err
			}
			updates["cancellation"] = raw
			result.Cancellation = cancellation
			if input.RefundRequested {
				updates["refund_status"] = enums.RefundStatusRequested
				result.RefundStatus = enums.RefundStatusRequested
			}
			return nil
		},
		event: func(order *models.Order, from enums.OrderStatus, now time.Time) outbox.DomainEvent {
			return outbox.DomainEvent{
				EventType:     enums.EventOrderCancelled,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         actorRef(actorID, actorRole),
				Data: payloads.OrderCancelledEvent{
					OrderID:         order.ID,
					OrderNumber:     order.OrderNumber,
					CustomerID:      order.CustomerID,
					Reason:          input.Reason,
					CancelledBy:     input.CancelledBy,
					RefundRequested: input.RefundRequested,
					CancelledAt:     now,
				},
				Version:    eventSchemaVersion,
				OccurredAt: now,
			}
		},
		after: func(ctx context.Context, order *models.Order) error {
			if !input.RefundRequested || s.refunds == nil {
				return nil
			}
			_, err := s.refunds.RefundPayment(ctx, payments.RefundRequest{
				OrderID:   order.ID,
				Amount:    order.TotalAmount,
				Currency:  order.Currency,
				Reference: order.OrderNumber,
				Reason:    input.Reason,
			})
			if err != nil {
				return fmt.Errorf("refund request: %w", err)
			}
			logCtx := s.logg.WithOrderID(ctx, order.ID.String())
			s.logg.Info(logCtx, "refund requested with payment provider")
			return nil
		},
	})
	if order != nil {
		s.metrics.IncCancellation(string(input.CancelledBy))
	}
	s.metrics.ObserveDuration("cancel_order", time.Since(start))
	return order, err
}

func (s *service) ConfirmRefund(ctx context.Context, input ConfirmRefundInput) (*models.Order, error) {
	start := time.Now()
	if input.PaymentTxID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment transaction id is required")
	}
	actorID := input.ActorID
	if actorID == "" {
		actorID = systemActorID
	}
	actorRole := input.ActorRole
	if actorRole == "" {
		actorRole = enums.ActorRoleSystem
	}
	if !actorRole.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid actor role %q", actorRole))
	}

	order, err := s.transition(ctx, input.OrderID, enums.OrderStatusRefunded, transitionOpts{
		note:      refundNoteText,
		actorID:   actorID,
		actorRole: actorRole,
		guard: func(order *models.Order) error {
			if order.RefundStatus != enums.RefundStatusRequested {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "no refund pending for order").
					WithDetails(map[string]any{"refund_status": order.RefundStatus.String()})
			}
			return nil
		},
		mutate: func(result *models.Order, updates map[string]any, now time.Time) error {
			updates["refund_status"] = enums.RefundStatusConfirmed
			result.RefundStatus = enums.RefundStatusConfirmed
			return nil
		},
		event: func(order *models.Order, from enums.OrderStatus, now time.Time) outbox.DomainEvent {
			return outbox.DomainEvent{
				EventType:     enums.EventOrderRefunded,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				Actor:         actorRef(actorID, actorRole),
				Data: payloads.OrderRefundedEvent{
					OrderID:     order.ID,
					OrderNumber: order.OrderNumber,
					CustomerID:  order.CustomerID,
					Amount:      order.TotalAmount,
					Currency:    order.Currency,
					PaymentTxID: input.PaymentTxID,
					ConfirmedAt: now,
				},
				Version:    eventSchemaVersion,
				OccurredAt: now,
			}
		},
		ledgerEntries: func(order *models.Order, from enums.OrderStatus) []ledger.RecordInput {
			return []ledger.RecordInput{{
				OrderID:         order.ID,
				OrderNumber:     order.OrderNumber,
				CustomerID:      order.CustomerID,
				TechnicianID:    order.TechnicianID,
				SubContractorID: order.SubContractorID,
				Type:            enums.TransactionTypeRefundIssued,
				Metadata: mustJSON(refundMetadata{
					PaymentTxID:    input.PaymentTxID,
					PreviousStatus: from.String(),
					NewStatus:      order.Status.String(),
				}),
				PerformedBy:     actorID,
				PerformedByRole: actorRole,
			}}
		},
	})
	s.metrics.ObserveDuration("confirm_refund", time.Since(start))
	return order, err
}

func (s *service) ListOrders(ctx context.Context, filters Filters, params pagination.Params) (*OrderList, error) {
	rows, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, err
	}
	return buildOrderList(rows, params.Limit), nil
}

func (s *service) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderList, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	rows, err := s.repo.ListByCustomerID(ctx, customerID, params)
	if err != nil {
		return nil, err
	}
	return buildOrderList(rows, params.Limit), nil
}

// transitionOpts parameterizes the shared transition path. mutate and guard
// run per CAS attempt against a freshly loaded order; event and ledgerEntries
// override the defaults used by plain status transitions.
type transitionOpts struct {
	note          string
	actorID       string
	actorRole     enums.ActorRole
	guard         func(order *models.Order) error
	mutate        func(result *models.Order, updates map[string]any, now time.Time) error
	event         func(order *models.Order, from enums.OrderStatus, now time.Time) outbox.DomainEvent
	ledgerEntries func(order *models.Order, from enums.OrderStatus) []ledger.RecordInput
	after         func(ctx context.Context, order *models.Order) error
}

func (s *service) transition(ctx context.Context, orderID uuid.UUID, to enums.OrderStatus, opts transitionOpts) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !to.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", to))
	}

	var updated *models.Order
	var from enums.OrderStatus

	backoff := retry.WithMaxRetries(casMaxRetries, retry.NewFibonacci(casRetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		order, err := s.repo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(to) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot transition order from %s to %s", order.Status, to)).
				WithDetails(map[string]any{"from": order.Status.String(), "to": to.String()})
		}
		if opts.guard != nil {
			if err := opts.guard(order); err != nil {
				return err
			}
		}

		now := s.now().UTC()
		entry := models.StatusChange{
			Status:    to,
			Timestamp: now,
			Note:      opts.note,
			ChangedBy: opts.actorID,
		}
		history := append(append(models.StatusHistory{}, order.StatusHistory...), entry)
		historyJSON, err := json.Marshal(history)
		if err != nil {
			return err
		}

		result := *order
		result.Status = to
		result.StatusHistory = history
		result.Version = order.Version + 1

		updates := map[string]any{
			"status":         to,
			"status_history": historyJSON,
		}
		setLifecycleTimestamp(&result, to, now, updates)
		if opts.mutate != nil {
			if err := opts.mutate(&result, updates, now); err != nil {
				return err
			}
		}

		from = order.Status
		txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			ok, err := s.repo.WithTx(tx).UpdateWithVersion(ctx, orderID, order.Version, updates)
			if err != nil {
				return err
			}
			if !ok {
				return errVersionConflict
			}
			event := s.stateChangedEvent(&result, from, opts, now)
			if opts.event != nil {
				event = opts.event(&result, from, now)
			}
			return s.outbox.Emit(ctx, tx, event)
		})
		if txErr != nil {
			if errors.Is(txErr, errVersionConflict) {
				return retry.RetryableError(txErr)
			}
			return txErr
		}
		updated = &result
		return nil
	})
	if err != nil {
		if errors.Is(err, errVersionConflict) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order was modified concurrently")
		}
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":    updated.ID.String(),
		"from_status": from.String(),
		"to_status":   to.String(),
	})
	s.logg.Info(logCtx, "order status transitioned")
	s.metrics.IncTransition(to.String())

	entries := s.defaultLedgerEntries(updated, from, opts)
	if opts.ledgerEntries != nil {
		entries = opts.ledgerEntries(updated, from)
	}
	warn := s.afterCommit(ctx, updated, entries,
		func(hook LifecycleHook) error { return hook.OrderTransitioned(ctx, updated, from, to) },
		opts.after,
	)
	if warn != nil {
		return updated, warn
	}
	return updated, nil
}

func (s *service) stateChangedEvent(order *models.Order, from enums.OrderStatus, opts transitionOpts, now time.Time) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventOrderStateChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actorRef(opts.actorID, opts.actorRole),
		Data: payloads.OrderStateChangedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID,
			FromStatus:  from,
			ToStatus:    order.Status,
			Note:        opts.note,
			ChangedBy:   opts.actorID,
			ChangedAt:   now,
		},
		Version:    eventSchemaVersion,
		OccurredAt: now,
	}
}

func (s *service) defaultLedgerEntries(order *models.Order, from enums.OrderStatus, opts transitionOpts) []ledger.RecordInput {
	return []ledger.RecordInput{{
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		TechnicianID:    order.TechnicianID,
		SubContractorID: order.SubContractorID,
		Type:            enums.TransactionTypeForStatus(order.Status),
		Metadata: mustJSON(transitionMetadata{
			PreviousStatus: from.String(),
			NewStatus:      order.Status.String(),
			Note:           opts.note,
		}),
		PerformedBy:     opts.actorID,
		PerformedByRole: opts.actorRole,
	}}
}

// afterCommit runs the secondary writes for an already-committed order
// mutation. Failures are aggregated into one partial-failure warning; the
// committed order is never rolled back.
func (s *service) afterCommit(ctx context.Context, order *models.Order, entries []ledger.RecordInput, notify func(LifecycleHook) error, after func(ctx context.Context, order *models.Order) error) error {
	var errs []error
	attempted := make([]string, 0, len(entries))
	for _, entry := range entries {
		attempted = append(attempted, entry.Type.String())
		if _, err := s.ledger.Record(ctx, entry); err != nil {
			errs = append(errs, fmt.Errorf("ledger %s: %w", entry.Type, err))
		}
	}
	if notify != nil {
		for _, hook := range s.hooks {
			if err := notify(hook); err != nil {
				errs = append(errs, fmt.Errorf("lifecycle hook: %w", err))
			}
		}
	}
	if after != nil {
		if err := after(ctx, order); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}

	combined := multierr.Combine(errs...)
	s.metrics.IncPartialFailure()
	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Error(logCtx, "order committed with incomplete audit trail", combined)
	return pkgerrors.Wrap(pkgerrors.CodePartialFailure, combined, "order committed with incomplete audit trail").
		WithDetails(map[string]any{
			"order_id":               order.ID.String(),
			"attempted_ledger_types": attempted,
		})
}

type transitionMetadata struct {
	PreviousStatus string `json:"previousStatus,omitempty"`
	NewStatus      string `json:"newStatus"`
	Note           string `json:"note,omitempty"`
}

type refundMetadata struct {
	PaymentTxID    string `json:"paymentTxId"`
	PreviousStatus string `json:"previousStatus"`
	NewStatus      string `json:"newStatus"`
}

// setLifecycleTimestamp stamps the at-most-once timestamp column matching the
// target status. A column already set on a replayed transition stays as-is.
func setLifecycleTimestamp(order *models.Order, to enums.OrderStatus, now time.Time, updates map[string]any) {
	switch to {
	case enums.OrderStatusAccepted:
		if order.AcceptedAt == nil {
			order.AcceptedAt = &now
			updates["accepted_at"] = now
		}
	case enums.OrderStatusInProgress:
		if order.StartedAt == nil {
			order.StartedAt = &now
			updates["started_at"] = now
		}
	case enums.OrderStatusCompleted:
		if order.CompletedAt == nil {
			order.CompletedAt = &now
			updates["completed_at"] = now
		}
	case enums.OrderStatusCancelled:
		if order.CancelledAt == nil {
			order.CancelledAt = &now
			updates["cancelled_at"] = now
		}
	}
}

func resolveActor(actorID string, role enums.ActorRole) (string, enums.ActorRole, error) {
	if actorID == "" {
		actorID = systemActorID
	}
	if role == "" {
		role = enums.ActorRoleSystem
	}
	if !role.IsValid() {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid actor role %q", role))
	}
	return actorID, role, nil
}

func actorRef(actorID string, role enums.ActorRole) *outbox.ActorRef {
	return &outbox.ActorRef{ActorID: actorID, Role: role.String()}
}

func buildOrderList(rows []models.Order, limit int) *OrderList {
	page, hasMore := pagination.Trim(rows, limit)
	list := &OrderList{Orders: page}
	if hasMore && len(page) > 0 {
		last := page[len(page)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list
}

func mustJSON(value any) json.RawMessage {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	return raw
}
